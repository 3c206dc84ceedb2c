package gifship

import (
	"github.com/bft-labs/gifship/internal/ports"
	"github.com/bft-labs/gifship/pkg/log"
)

// FrameSink captures one screen image to a destination path.
type FrameSink = ports.FrameSink

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc = ports.FrameSinkFunc

// Logger is the structured logger used throughout gifship.
type Logger = log.Logger

// Option configures optional behavior of Gifship.
type Option func(*options)

type options struct {
	logger       log.Logger
	sink         ports.FrameSink
	eventHandler EventHandler
	stop         func() bool
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFrameSink replaces the configured capture backend.
func WithFrameSink(sink FrameSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithEventHandler sets a handler for phase and frame events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithStop sets a predicate checked once per tick; the recording ends when
// it returns false.
func WithStop(keepGoing func() bool) Option {
	return func(o *options) {
		o.stop = keepGoing
	}
}
