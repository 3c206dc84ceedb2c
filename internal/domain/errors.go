package domain

import (
	"errors"
	"fmt"
)

// Domain errors can be checked with errors.Is.
var (
	// ErrEmptyCapture is returned when no frames are available for encoding.
	ErrEmptyCapture = errors.New("gifship: no captured frames")

	// ErrSequenceGap is returned when a frame is missing without a recorded capture failure.
	ErrSequenceGap = errors.New("gifship: frame sequence gap")

	// ErrDuplicateFrame is returned when two artifacts claim the same sequence number.
	ErrDuplicateFrame = errors.New("gifship: duplicate frame sequence")

	// ErrUnorderedFrames is returned when a frame set is not strictly increasing.
	ErrUnorderedFrames = errors.New("gifship: frames out of order")

	// ErrInvalidSession is returned when a capture session cannot be run.
	ErrInvalidSession = errors.New("gifship: invalid capture session")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("gifship: invalid configuration")

	// ErrInvalidTransition is returned by state machines on an illegal transition.
	ErrInvalidTransition = errors.New("gifship: invalid state transition")

	// ErrStreamFinalized is returned when writing to a finalized stream.
	ErrStreamFinalized = errors.New("gifship: stream already finalized")
)

// CaptureFailure records one capture task that produced no frame.
// It is absorbed by the scheduler and never aborts a session.
type CaptureFailure struct {
	Sequence uint64
	Path     string
	Err      error
}

func (e *CaptureFailure) Error() string {
	return fmt.Sprintf("capture frame %d (%s): %v", e.Sequence, e.Path, e.Err)
}

func (e *CaptureFailure) Unwrap() error { return e.Err }

// EncodeIOError reports a failure to open, write or finalize the output sink.
type EncodeIOError struct {
	Op  string // "open", "write" or "finalize"
	Err error
}

func (e *EncodeIOError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Op, e.Err)
}

func (e *EncodeIOError) Unwrap() error { return e.Err }

// MalformedFrameError reports a frame that does not fit the template derived
// from the first frame, or that cannot be decoded at all.
type MalformedFrameError struct {
	Sequence uint64
	Path     string
	Reason   string
	Err      error
}

func (e *MalformedFrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed frame %d (%s): %s: %v", e.Sequence, e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed frame %d (%s): %s", e.Sequence, e.Path, e.Reason)
}

func (e *MalformedFrameError) Unwrap() error { return e.Err }
