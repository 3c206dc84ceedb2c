package gifship

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bft-labs/gifship/internal/adapters/fs"
	"github.com/bft-labs/gifship/internal/adapters/portal"
	"github.com/bft-labs/gifship/internal/adapters/screen"
	"github.com/bft-labs/gifship/internal/app"
	"github.com/bft-labs/gifship/internal/domain"
	"github.com/bft-labs/gifship/internal/ports"
	"github.com/bft-labs/gifship/pkg/log"
)

// Report summarises one recording or encode.
type Report = app.Report

// Errors returned by Record and Encode. Use errors.Is and errors.As.
var (
	ErrEmptyCapture   = domain.ErrEmptyCapture
	ErrSequenceGap    = domain.ErrSequenceGap
	ErrDuplicateFrame = domain.ErrDuplicateFrame
	ErrInvalidConfig  = domain.ErrInvalidConfig

	// ErrBusy is returned when Record or Encode is called while another
	// call on the same instance is running.
	ErrBusy = errors.New("gifship: already running")
)

type (
	MalformedFrameError = domain.MalformedFrameError
	EncodeIOError       = domain.EncodeIOError
	CaptureFailure      = domain.CaptureFailure
)

// Gifship records the screen into an animated GIF.
// Use New() to create an instance, then Record() or Encode().
type Gifship struct {
	config  Config
	opts    options
	sink    ports.FrameSink
	logger  log.Logger
	emitter *eventEmitterWrapper

	mu sync.Mutex
}

// New creates a Gifship with the given configuration.
// Returns an error if configuration is invalid or the capture backend
// cannot be initialised.
func New(cfg Config, opts ...Option) (*Gifship, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}

	if cfg.Duration == 0 && cfg.StopFile == "" && o.stop == nil {
		return nil, fmt.Errorf("%w: duration, stop file or stop predicate required", domain.ErrInvalidConfig)
	}

	sink := o.sink
	if sink == nil {
		var err error
		if sink, err = newFrameSink(cfg); err != nil {
			return nil, err
		}
	}

	return &Gifship{
		config:  cfg,
		opts:    o,
		sink:    sink,
		logger:  o.logger,
		emitter: &eventEmitterWrapper{handler: o.eventHandler},
	}, nil
}

func newFrameSink(cfg Config) (ports.FrameSink, error) {
	switch cfg.Backend {
	case BackendPortal:
		return portal.NewPortalSink(cfg.PortalTimeout)
	default:
		if cfg.Region.Empty() {
			return screen.NewScreenshotSink(), nil
		}
		return screen.NewRegionSink(cfg.Region)
	}
}

// Config returns the effective configuration.
func (g *Gifship) Config() Config { return g.config }

// Record captures the screen until the configured stop condition, then
// encodes the captured frames into the output file.
func (g *Gifship) Record(ctx context.Context) (Report, error) {
	if !g.mu.TryLock() {
		return Report{}, ErrBusy
	}
	defer g.mu.Unlock()

	removed, err := fs.PrepareCaptureDir(g.config.CaptureDir, domain.FrameExtension, g.logger)
	if err != nil {
		return Report{}, fmt.Errorf("prepare capture dir: %w", err)
	}
	if removed > 0 {
		g.logger.Info("removed previous capture", log.Int("files", removed), log.String("dir", g.config.CaptureDir))
	}

	keepGoing := g.opts.stop
	if g.config.StopFile != "" {
		w := fs.NewStopWatcher(g.config.StopFile, g.logger)
		if err := w.Start(ctx); err != nil {
			return Report{}, err
		}
		defer w.Close()
		keepGoing = both(keepGoing, w.Continue)
		g.logger.Info("create the stop file to end recording", log.String("path", g.config.StopFile))
	}

	session := domain.CaptureSession{
		ID:       uuid.NewString(),
		FPS:      g.config.FPS,
		Duration: g.config.Duration,
		Continue: keepGoing,
		Dir:      g.config.CaptureDir,
	}
	return g.recorder(g.config.CaptureDir).Record(ctx, session)
}

// Encode encodes the frames already present in dir into the output file.
// An empty dir means the configured capture directory.
func (g *Gifship) Encode(ctx context.Context, dir string) (Report, error) {
	if !g.mu.TryLock() {
		return Report{}, ErrBusy
	}
	defer g.mu.Unlock()

	if dir == "" {
		dir = g.config.CaptureDir
	}
	return g.recorder(dir).EncodeDir(ctx, dir, domain.FrameExtension)
}

func (g *Gifship) recorder(dir string) *app.Recorder {
	return app.NewRecorder(
		app.RecorderConfig{
			Workers:     g.config.Workers,
			Loop:        g.config.Loop,
			Comment:     g.config.Comment,
			FallbackFPS: g.config.FPS,
		},
		g.sink,
		fs.NewManifestFileRepository(dir),
		fs.CreateSink(g.config.OutputFile),
		g.logger,
		g.emitter,
		g.emitter,
	)
}

func both(a, b func() bool) func() bool {
	if a == nil {
		return b
	}
	return func() bool { return a() && b() }
}
