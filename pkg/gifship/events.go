package gifship

import "github.com/bft-labs/gifship/internal/app"

// Phase is the stage a recording is in.
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
	return app.Phase(p).String()
}

// PhaseChangeEvent is emitted on every phase transition.
type PhaseChangeEvent struct {
	Previous Phase
	Current  Phase
	Reason   string
}

// FrameEvent is emitted once per finished capture task.
type FrameEvent struct {
	Sequence uint64
	Path     string

	// Err is nil when the frame was written.
	Err error
}

// EventHandler receives recording events.
type EventHandler interface {
	OnPhaseChange(event PhaseChangeEvent)
	OnFrameCaptured(event FrameEvent)
}

// BaseEventHandler implements EventHandler with no-ops; embed it to
// override only the events you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnPhaseChange(PhaseChangeEvent) {}
func (BaseEventHandler) OnFrameCaptured(FrameEvent)     {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnPhaseChange(previous, current app.Phase, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnPhaseChange(PhaseChangeEvent{
		Previous: convertPhase(previous),
		Current:  convertPhase(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnFrameCaptured(seq uint64, path string, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnFrameCaptured(FrameEvent{Sequence: seq, Path: path, Err: err})
}

func convertPhase(p app.Phase) Phase {
	switch p {
	case app.PhaseIdle:
		return PhaseIdle
	case app.PhaseCapturing:
		return PhaseCapturing
	case app.PhaseSequencing:
		return PhaseSequencing
	case app.PhaseEncoding:
		return PhaseEncoding
	case app.PhaseDone:
		return PhaseDone
	default:
		return PhaseFailed
	}
}
