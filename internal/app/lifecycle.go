package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/gifship/internal/domain"
	"github.com/bft-labs/gifship/pkg/log"
)

// Phase is the stage a recording run is in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCapturing
	PhaseSequencing
	PhaseEncoding
	PhaseDone
	PhaseFailed
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseCapturing:
		return "Capturing"
	case PhaseSequencing:
		return "Sequencing"
	case PhaseEncoding:
		return "Encoding"
	case PhaseDone:
		return "Done"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// PhaseEmitter is called when the lifecycle phase changes.
type PhaseEmitter interface {
	OnPhaseChange(previous, current Phase, reason string)
}

// Lifecycle is the phase state machine of one recording run.
type Lifecycle struct {
	mu      sync.RWMutex
	phase   Phase
	logger  log.Logger
	emitter PhaseEmitter
}

// NewLifecycle creates a lifecycle in PhaseIdle.
func NewLifecycle(logger log.Logger, emitter PhaseEmitter) *Lifecycle {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Lifecycle{
		phase:   PhaseIdle,
		logger:  logger,
		emitter: emitter,
	}
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// TransitionTo moves to next. It returns domain.ErrInvalidTransition if the
// move is not allowed from the current phase.
func (l *Lifecycle) TransitionTo(next Phase, reason string) error {
	l.mu.Lock()
	prev := l.phase
	if !validTransition(prev, next) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, prev, next)
	}
	l.phase = next
	l.mu.Unlock()

	// Emit event outside of lock
	if l.emitter != nil {
		l.emitter.OnPhaseChange(prev, next, reason)
	}

	l.logger.Info("phase transition",
		log.String("from", prev.String()),
		log.String("to", next.String()),
		log.String("reason", reason),
	)
	return nil
}

// Fail moves any non-terminal phase to PhaseFailed. It is a no-op once the
// run is already terminal.
func (l *Lifecycle) Fail(err error) {
	if l.Phase().Terminal() {
		return
	}
	_ = l.TransitionTo(PhaseFailed, err.Error())
}

func validTransition(from, to Phase) bool {
	switch from {
	case PhaseIdle:
		// Encoding an existing capture directory skips capture.
		return to == PhaseCapturing || to == PhaseSequencing || to == PhaseFailed
	case PhaseCapturing:
		return to == PhaseSequencing || to == PhaseFailed
	case PhaseSequencing:
		return to == PhaseEncoding || to == PhaseFailed
	case PhaseEncoding:
		return to == PhaseDone || to == PhaseFailed
	default:
		return false
	}
}
