package domain

import (
	"fmt"
	"sort"
	"time"
)

// CaptureSession describes one capture run. It is immutable once started.
type CaptureSession struct {
	// ID identifies the session in logs and in the manifest.
	ID string

	// FPS is the target frame rate in frames per second.
	FPS int

	// Duration bounds the capture. Zero means run until Continue returns false.
	Duration time.Duration

	// Continue is an optional external stop predicate, checked once per tick.
	Continue func() bool

	// Dir is where frame artifacts are written.
	Dir string

	// Extension is the artifact extension, FrameExtension when empty.
	Extension string
}

// Validate reports whether the session can be scheduled.
func (s CaptureSession) Validate() error {
	if s.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidSession, s.FPS)
	}
	if s.FPS > 1000 {
		return fmt.Errorf("%w: fps %d exceeds one frame per millisecond", ErrInvalidSession, s.FPS)
	}
	if s.Duration < 0 {
		return fmt.Errorf("%w: negative duration %s", ErrInvalidSession, s.Duration)
	}
	if s.Duration == 0 && s.Continue == nil {
		return fmt.Errorf("%w: duration or stop condition required", ErrInvalidSession)
	}
	if s.Dir == "" {
		return fmt.Errorf("%w: capture directory required", ErrInvalidSession)
	}
	return nil
}

// Ext returns the artifact extension.
func (s CaptureSession) Ext() string {
	if s.Extension == "" {
		return FrameExtension
	}
	return s.Extension
}

// IntervalMillis returns the tick interval: 1000/fps, truncated.
func (s CaptureSession) IntervalMillis() int {
	if s.FPS <= 0 {
		return 0
	}
	return 1000 / s.FPS
}

// Interval returns IntervalMillis as a duration.
func (s CaptureSession) Interval() time.Duration {
	return time.Duration(s.IntervalMillis()) * time.Millisecond
}

// AnimationSpec carries the timing and loop directive for encoding.
// The delay is the scheduling interval, not measured capture latency.
type AnimationSpec struct {
	IntervalMillis int
	Loop           bool
	Comment        string
}

// NewAnimationSpec derives an AnimationSpec from a capture interval.
func NewAnimationSpec(intervalMillis int, loop bool, comment string) AnimationSpec {
	return AnimationSpec{IntervalMillis: intervalMillis, Loop: loop, Comment: comment}
}

// DelayUnits returns the per-frame delay in hundredths of a second, truncated.
func (a AnimationSpec) DelayUnits() int {
	if a.IntervalMillis <= 0 {
		return 0
	}
	return a.IntervalMillis / 10
}

// LoopCount returns the NETSCAPE loop field: 0 loops forever, 1 plays once more.
func (a AnimationSpec) LoopCount() int {
	if a.Loop {
		return 0
	}
	return 1
}

// CaptureResult summarises a finished capture phase.
type CaptureResult struct {
	Issued         uint64
	Captured       uint64
	Failures       []CaptureFailure
	IntervalMillis int
	Started        time.Time
	Finished       time.Time
}

// FailedSequences returns the sequence numbers of failed tasks in ascending order.
func (r CaptureResult) FailedSequences() []uint64 {
	out := make([]uint64, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Sequence)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Manifest is the sidecar written next to the frames once the drain barrier passes.
type Manifest struct {
	SessionID      string    `json:"session_id"`
	FPS            int       `json:"fps"`
	IntervalMillis int       `json:"interval_ms"`
	Issued         uint64    `json:"issued"`
	Failed         []uint64  `json:"failed,omitempty"`
	Started        time.Time `json:"started"`
	Finished       time.Time `json:"finished"`
}

// NewManifest builds the manifest for a session and its result.
func NewManifest(s CaptureSession, r CaptureResult) Manifest {
	return Manifest{
		SessionID:      s.ID,
		FPS:            s.FPS,
		IntervalMillis: r.IntervalMillis,
		Issued:         r.Issued,
		Failed:         r.FailedSequences(),
		Started:        r.Started,
		Finished:       r.Finished,
	}
}
