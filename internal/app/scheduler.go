package app

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/bft-labs/gifship/internal/domain"
	"github.com/bft-labs/gifship/internal/ports"
	"github.com/bft-labs/gifship/pkg/log"
)

// CaptureObserver is notified once per finished capture task.
// err is nil when the frame was written. Calls may arrive concurrently
// and in any order.
type CaptureObserver interface {
	OnFrameCaptured(seq uint64, path string, err error)
}

// Scheduler drives a FrameSink at a fixed interval. Captures run on a
// bounded pool and never block the tick loop.
type Scheduler struct {
	sink     ports.FrameSink
	workers  int
	logger   log.Logger
	observer CaptureObserver

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewScheduler creates a scheduler. workers <= 0 means runtime.NumCPU().
func NewScheduler(sink ports.FrameSink, workers int, logger log.Logger, observer CaptureObserver) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Scheduler{
		sink:     sink,
		workers:  workers,
		logger:   logger,
		observer: observer,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Workers returns the maximum number of concurrent captures.
func (s *Scheduler) Workers() int { return s.workers }

// Run ticks until the context is done, the session deadline passes, or the
// session's Continue predicate returns false. Each tick dispatches one
// capture task with the next sequence number. Run returns only after every
// dispatched task has finished.
//
// A cancelled context stops ticking but does not cancel dispatched tasks,
// and is not reported as an error.
func (s *Scheduler) Run(ctx context.Context, session domain.CaptureSession) (domain.CaptureResult, error) {
	if err := session.Validate(); err != nil {
		return domain.CaptureResult{}, err
	}

	interval := session.Interval()
	ext := session.Ext()
	started := s.now()
	var deadline time.Time
	if session.Duration > 0 {
		deadline = started.Add(session.Duration)
	}

	var (
		counter  atomic.Uint64
		captured atomic.Uint64
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []domain.CaptureFailure
	)
	sem := semaphore.NewWeighted(int64(s.workers))
	taskCtx := context.WithoutCancel(ctx)

	logger := s.logger.With(log.String("session", session.ID))
	logger.Info("capture started",
		log.Int("fps", session.FPS),
		log.Duration("interval", interval),
		log.Duration("duration", session.Duration),
		log.Int("workers", s.workers),
	)

	for s.keepTicking(ctx, session, deadline) {
		seq := counter.Add(1)
		dest := domain.FramePath(session.Dir, seq, ext)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(taskCtx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			err := s.capture(taskCtx, dest)
			if err != nil {
				mu.Lock()
				failures = append(failures, domain.CaptureFailure{Sequence: seq, Path: dest, Err: err})
				mu.Unlock()
				logger.Warn("capture failed", log.Uint64("seq", seq), log.Err(err))
			} else {
				captured.Add(1)
				logger.Debug("frame captured", log.Uint64("seq", seq), log.String("path", dest))
			}
			if s.observer != nil {
				s.observer.OnFrameCaptured(seq, dest, err)
			}
		}()
		logger.Debug("capture submitted", log.Uint64("seq", seq))

		if err := s.sleep(ctx, interval); err != nil {
			break
		}
	}

	issued := counter.Load()
	logger.Debug("waiting for in-flight captures", log.Uint64("issued", issued))
	wg.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].Sequence < failures[j].Sequence })
	result := domain.CaptureResult{
		Issued:         issued,
		Captured:       captured.Load(),
		Failures:       failures,
		IntervalMillis: session.IntervalMillis(),
		Started:        started,
		Finished:       s.now(),
	}
	logger.Info("capture finished",
		log.Uint64("issued", result.Issued),
		log.Uint64("captured", result.Captured),
		log.Int("failed", len(result.Failures)),
	)
	return result, nil
}

func (s *Scheduler) keepTicking(ctx context.Context, session domain.CaptureSession, deadline time.Time) bool {
	if ctx.Err() != nil {
		return false
	}
	if !deadline.IsZero() && !s.now().Before(deadline) {
		return false
	}
	if session.Continue != nil && !session.Continue() {
		return false
	}
	return true
}

// capture runs the sink, turning a panic into an error.
func (s *Scheduler) capture(ctx context.Context, dest string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capture panic: %v", r)
		}
	}()
	return s.sink.Capture(ctx, dest)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
