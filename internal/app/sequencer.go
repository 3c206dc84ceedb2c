package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/gifship/internal/domain"
	"github.com/bft-labs/gifship/pkg/log"
)

// Sequencer turns the contents of a capture directory into an ordered frame set.
type Sequencer struct {
	logger log.Logger
}

// NewSequencer creates a sequencer.
func NewSequencer(logger log.Logger) *Sequencer {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Sequencer{logger: logger}
}

// Order lists regular files in dir with extension ext and orders them by the
// sequence number encoded in their name. Files whose names do not parse are
// skipped. Two files with the same sequence number are an error.
func (s *Sequencer) Order(dir, ext string) (domain.OrderedFrameSet, error) {
	if ext == "" {
		ext = domain.FrameExtension
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.OrderedFrameSet{}, fmt.Errorf("%w: %s does not exist", domain.ErrEmptyCapture, dir)
		}
		return domain.OrderedFrameSet{}, fmt.Errorf("read capture dir: %w", err)
	}

	handles := make([]domain.FrameHandle, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		seq, ok := domain.ParseFrameName(e.Name(), ext)
		if !ok {
			s.logger.Debug("skipping file", log.String("name", e.Name()))
			continue
		}
		handles = append(handles, domain.FrameHandle{Sequence: seq, Path: filepath.Join(dir, e.Name())})
	}
	if len(handles) == 0 {
		return domain.OrderedFrameSet{}, domain.ErrEmptyCapture
	}

	set, err := domain.NewOrderedFrameSet(handles)
	if err != nil {
		return domain.OrderedFrameSet{}, err
	}
	s.logger.Debug("frames ordered",
		log.Int("count", set.Len()),
		log.Uint64("first", set.First().Sequence),
	)
	return set, nil
}
