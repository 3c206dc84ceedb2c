package domain

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FrameExtension is the artifact extension written by capture tasks.
const FrameExtension = ".png"

// sequenceWidth keeps lexical order equal to numeric order up to 999999 frames.
const sequenceWidth = 6

// FrameHandle identifies one captured frame.
// It is created by a completed capture task and never mutated afterwards.
type FrameHandle struct {
	// Sequence is the 1-based capture order assigned at tick time.
	Sequence uint64

	// Path is where the frame's pixel data is stored.
	Path string
}

// FrameFileName returns the zero-padded artifact name for seq, e.g. "000042.png".
func FrameFileName(seq uint64, ext string) string {
	return fmt.Sprintf("%0*d%s", sequenceWidth, seq, ext)
}

// FramePath joins dir and the artifact name for seq.
func FramePath(dir string, seq uint64, ext string) string {
	return filepath.Join(dir, FrameFileName(seq, ext))
}

// ParseFrameName extracts the sequence number from an artifact name.
// Names with the wrong extension or a non-numeric stem are rejected.
func ParseFrameName(name, ext string) (uint64, bool) {
	if !strings.EqualFold(filepath.Ext(name), ext) {
		return 0, false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		return 0, false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.ParseUint(stem, 10, 64)
	if err != nil || seq == 0 {
		return 0, false
	}
	return seq, true
}

// OrderedFrameSet is the sole input to encoding: frames sorted by sequence.
type OrderedFrameSet struct {
	Frames []FrameHandle
}

// NewOrderedFrameSet sorts handles by sequence and rejects duplicates.
func NewOrderedFrameSet(handles []FrameHandle) (OrderedFrameSet, error) {
	frames := append([]FrameHandle(nil), handles...)
	sort.Slice(frames, func(i, j int) bool { return frames[i].Sequence < frames[j].Sequence })
	for i := 1; i < len(frames); i++ {
		if frames[i].Sequence == frames[i-1].Sequence {
			return OrderedFrameSet{}, fmt.Errorf("%w: %d (%s, %s)",
				ErrDuplicateFrame, frames[i].Sequence, frames[i-1].Path, frames[i].Path)
		}
	}
	return OrderedFrameSet{Frames: frames}, nil
}

// Len returns the number of frames.
func (s OrderedFrameSet) Len() int { return len(s.Frames) }

// Empty reports whether the set has no frames.
func (s OrderedFrameSet) Empty() bool { return len(s.Frames) == 0 }

// First returns the first frame. It panics on an empty set.
func (s OrderedFrameSet) First() FrameHandle { return s.Frames[0] }

// Sequences returns the sequence numbers in order.
func (s OrderedFrameSet) Sequences() []uint64 {
	out := make([]uint64, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = f.Sequence
	}
	return out
}

// Validate checks the strictly-increasing invariant.
func (s OrderedFrameSet) Validate() error {
	for i := 1; i < len(s.Frames); i++ {
		if s.Frames[i].Sequence <= s.Frames[i-1].Sequence {
			return fmt.Errorf("%w: %d after %d", ErrUnorderedFrames, s.Frames[i].Sequence, s.Frames[i-1].Sequence)
		}
	}
	return nil
}

// CheckComplete verifies that every sequence in 1..issued is either present
// or listed in failed. Frames beyond issued are also an integrity error.
func (s OrderedFrameSet) CheckComplete(issued uint64, failed []uint64) error {
	lost := make(map[uint64]struct{}, len(failed))
	for _, seq := range failed {
		lost[seq] = struct{}{}
	}
	next := uint64(1)
	for _, f := range s.Frames {
		if f.Sequence > issued {
			return fmt.Errorf("%w: frame %d beyond %d issued", ErrSequenceGap, f.Sequence, issued)
		}
		for ; next < f.Sequence; next++ {
			if _, ok := lost[next]; !ok {
				return fmt.Errorf("%w: frame %d missing", ErrSequenceGap, next)
			}
		}
		next = f.Sequence + 1
	}
	for ; next <= issued; next++ {
		if _, ok := lost[next]; !ok {
			return fmt.Errorf("%w: frame %d missing", ErrSequenceGap, next)
		}
	}
	return nil
}
