package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	// Frame decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bft-labs/gifship/internal/domain"
	"github.com/bft-labs/gifship/internal/ports"
	"github.com/bft-labs/gifship/pkg/gifstream"
	"github.com/bft-labs/gifship/pkg/log"
)

// Encoder writes an ordered frame set into one animated GIF.
// It is strictly sequential.
type Encoder struct {
	logger log.Logger
}

// NewEncoder creates an encoder.
func NewEncoder(logger log.Logger) *Encoder {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Encoder{logger: logger}
}

// Encode writes frames in order to the sink returned by open, using the
// first frame's bounds and palette as the template for every frame.
//
// Once the sink is open it is finalized exactly once on every path: the
// trailer is written and the sink closed even when a frame is malformed,
// a write fails, or ctx is cancelled. Finalization errors are joined with
// the primary error.
func (e *Encoder) Encode(ctx context.Context, frames domain.OrderedFrameSet, spec domain.AnimationSpec, open ports.SinkOpener) error {
	if frames.Empty() {
		return domain.ErrEmptyCapture
	}
	if err := frames.Validate(); err != nil {
		return err
	}

	first, err := loadFrame(frames.First())
	if err != nil {
		return err
	}
	tmpl, err := gifstream.NewTemplate(first)
	if err != nil {
		return &domain.MalformedFrameError{
			Sequence: frames.First().Sequence,
			Path:     frames.First().Path,
			Reason:   "unusable first frame",
			Err:      err,
		}
	}

	sink, err := open()
	if err != nil {
		return &domain.EncodeIOError{Op: "open", Err: err}
	}

	gw, err := gifstream.NewWriter(sink, tmpl, gifstream.Options{
		Delay:     spec.DelayUnits(),
		LoopCount: spec.LoopCount(),
		Comment:   spec.Comment,
	})
	if err != nil {
		if cerr := sink.Close(); cerr != nil {
			err = errors.Join(err, &domain.EncodeIOError{Op: "finalize", Err: cerr})
		}
		return err
	}

	e.logger.Debug("encoding",
		log.Int("frames", frames.Len()),
		log.Int("width", tmpl.Width),
		log.Int("height", tmpl.Height),
		log.Int("delay", spec.DelayUnits()),
		log.Int("loop_count", spec.LoopCount()),
	)

	werr := e.writeFrames(ctx, gw, frames, first)
	return errors.Join(werr, finalize(gw, sink))
}

func (e *Encoder) writeFrames(ctx context.Context, gw *gifstream.Writer, frames domain.OrderedFrameSet, first image.Image) error {
	for i, f := range frames.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}

		img := first
		if i > 0 {
			var err error
			if img, err = loadFrame(f); err != nil {
				return err
			}
		}

		if err := gw.WriteFrame(img); err != nil {
			switch {
			case errors.Is(err, gifstream.ErrFrameSize):
				return &domain.MalformedFrameError{
					Sequence: f.Sequence,
					Path:     f.Path,
					Reason:   "dimensions differ from first frame",
					Err:      err,
				}
			case errors.Is(err, gifstream.ErrFinalized):
				return fmt.Errorf("%w: %v", domain.ErrStreamFinalized, err)
			default:
				return &domain.EncodeIOError{Op: "write", Err: err}
			}
		}
		e.logger.Debug("frame encoded", log.Uint64("seq", f.Sequence), log.Int("index", i))
	}
	return nil
}

// finalize closes the stream and then the sink, regardless of earlier errors.
func finalize(gw *gifstream.Writer, sink interface{ Close() error }) error {
	var errs []error
	if err := gw.Close(); err != nil {
		if errors.Is(err, gifstream.ErrFinalized) {
			errs = append(errs, fmt.Errorf("%w: %v", domain.ErrStreamFinalized, err))
		} else {
			errs = append(errs, &domain.EncodeIOError{Op: "finalize", Err: err})
		}
	}
	if err := sink.Close(); err != nil {
		errs = append(errs, &domain.EncodeIOError{Op: "finalize", Err: err})
	}
	return errors.Join(errs...)
}

func loadFrame(f domain.FrameHandle) (image.Image, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, &domain.MalformedFrameError{Sequence: f.Sequence, Path: f.Path, Reason: "unreadable", Err: err}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &domain.MalformedFrameError{Sequence: f.Sequence, Path: f.Path, Reason: "undecodable", Err: err}
	}
	return img, nil
}
