package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/gifship/internal/domain"
	"github.com/bft-labs/gifship/internal/ports"
	"github.com/bft-labs/gifship/pkg/log"
)

// RecorderConfig contains the encode settings of a recorder.
type RecorderConfig struct {
	Workers int
	Loop    bool
	Comment string

	// FallbackFPS sets the frame delay when encoding a directory that has
	// no manifest.
	FallbackFPS int
}

// Report summarises one run.
type Report struct {
	SessionID      string
	Issued         uint64
	Captured       uint64
	Failed         []uint64
	Frames         int
	IntervalMillis int
	Delay          int
	LoopCount      int
	Elapsed        time.Duration
}

// Recorder runs capture, sequencing and encoding as phases of one lifecycle.
type Recorder struct {
	config    RecorderConfig
	scheduler *Scheduler
	sequencer *Sequencer
	encoder   *Encoder
	manifests ports.ManifestRepository
	output    ports.SinkOpener
	logger    log.Logger
	emitter   PhaseEmitter
}

// NewRecorder wires a recorder. manifests may be nil, in which case no
// sidecar is written or read.
func NewRecorder(
	config RecorderConfig,
	sink ports.FrameSink,
	manifests ports.ManifestRepository,
	output ports.SinkOpener,
	logger log.Logger,
	emitter PhaseEmitter,
	observer CaptureObserver,
) *Recorder {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Recorder{
		config:    config,
		scheduler: NewScheduler(sink, config.Workers, logger, observer),
		sequencer: NewSequencer(logger),
		encoder:   NewEncoder(logger),
		manifests: manifests,
		output:    output,
		logger:    logger,
		emitter:   emitter,
	}
}

// Record captures frames for session, then encodes them. Capture failures of
// individual frames are tolerated; the encode covers the frames that exist.
func (r *Recorder) Record(ctx context.Context, session domain.CaptureSession) (Report, error) {
	lc := NewLifecycle(r.logger, r.emitter)
	report := Report{SessionID: session.ID}
	start := time.Now()

	if err := lc.TransitionTo(PhaseCapturing, "record"); err != nil {
		return report, err
	}
	result, err := r.scheduler.Run(ctx, session)
	if err != nil {
		lc.Fail(err)
		return report, err
	}
	report.Issued = result.Issued
	report.Captured = result.Captured
	report.Failed = result.FailedSequences()
	report.IntervalMillis = result.IntervalMillis

	if r.manifests != nil {
		// Background context: the manifest is still written after an interrupt.
		if err := r.manifests.Save(context.WithoutCancel(ctx), domain.NewManifest(session, result)); err != nil {
			r.logger.Warn("failed to save manifest", log.Err(err))
		}
	}

	if err := lc.TransitionTo(PhaseSequencing, "capture drained"); err != nil {
		return report, err
	}
	frames, err := r.sequencer.Order(session.Dir, session.Ext())
	if err != nil {
		lc.Fail(err)
		return report, err
	}
	if err := frames.CheckComplete(result.Issued, report.Failed); err != nil {
		lc.Fail(err)
		return report, err
	}

	spec := domain.NewAnimationSpec(result.IntervalMillis, r.config.Loop, r.config.Comment)
	err = r.encode(context.WithoutCancel(ctx), lc, frames, spec, &report)
	report.Elapsed = time.Since(start)
	return report, err
}

// EncodeDir encodes an existing capture directory. When the directory holds a
// manifest, its interval and failure list are used; otherwise the fallback
// frame rate sets the delay and no completeness check is possible.
func (r *Recorder) EncodeDir(ctx context.Context, dir, ext string) (Report, error) {
	lc := NewLifecycle(r.logger, r.emitter)
	var report Report
	start := time.Now()

	if err := lc.TransitionTo(PhaseSequencing, "encode"); err != nil {
		return report, err
	}
	frames, err := r.sequencer.Order(dir, ext)
	if err != nil {
		lc.Fail(err)
		return report, err
	}

	interval, err := r.intervalFor(ctx, frames, &report)
	if err != nil {
		lc.Fail(err)
		return report, err
	}
	report.IntervalMillis = interval

	spec := domain.NewAnimationSpec(interval, r.config.Loop, r.config.Comment)
	err = r.encode(ctx, lc, frames, spec, &report)
	report.Elapsed = time.Since(start)
	return report, err
}

func (r *Recorder) intervalFor(ctx context.Context, frames domain.OrderedFrameSet, report *Report) (int, error) {
	if r.manifests != nil {
		m, ok, err := r.manifests.Load(ctx)
		if err != nil {
			return 0, fmt.Errorf("load manifest: %w", err)
		}
		if ok {
			if err := frames.CheckComplete(m.Issued, m.Failed); err != nil {
				return 0, err
			}
			report.SessionID = m.SessionID
			report.Issued = m.Issued
			report.Failed = m.Failed
			report.Captured = uint64(frames.Len())
			return m.IntervalMillis, nil
		}
	}

	fps := r.config.FallbackFPS
	if fps <= 0 {
		return 0, fmt.Errorf("%w: no manifest and no frame rate", domain.ErrInvalidConfig)
	}
	r.logger.Warn("no manifest found, using configured frame rate", log.Int("fps", fps))
	report.Issued = uint64(frames.Len())
	report.Captured = uint64(frames.Len())
	return domain.CaptureSession{FPS: fps}.IntervalMillis(), nil
}

func (r *Recorder) encode(ctx context.Context, lc *Lifecycle, frames domain.OrderedFrameSet, spec domain.AnimationSpec, report *Report) error {
	if err := lc.TransitionTo(PhaseEncoding, fmt.Sprintf("%d frames", frames.Len())); err != nil {
		return err
	}
	report.Delay = spec.DelayUnits()
	report.LoopCount = spec.LoopCount()

	if err := r.encoder.Encode(ctx, frames, spec, r.output); err != nil {
		var malformed *domain.MalformedFrameError
		if errors.As(err, &malformed) {
			r.logger.Error("malformed frame",
				log.Uint64("seq", malformed.Sequence),
				log.String("path", malformed.Path),
				log.String("reason", malformed.Reason),
			)
		}
		lc.Fail(err)
		return err
	}
	report.Frames = frames.Len()
	return lc.TransitionTo(PhaseDone, "encoded")
}
