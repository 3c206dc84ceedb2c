package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/gifship/pkg/log"
)

// StopWatcher turns the appearance of a marker file into a stop condition.
// Its Continue method is meant to be used as a capture session predicate:
//
//	w := fs.NewStopWatcher("/tmp/gifship.stop", logger)
//	_ = w.Start(ctx)
//	session.Continue = w.Continue
type StopWatcher struct {
	path   string
	logger log.Logger

	stopped atomic.Bool
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewStopWatcher creates a watcher for the marker file at path.
func NewStopWatcher(path string, logger log.Logger) *StopWatcher {
	return &StopWatcher{
		path:   filepath.Clean(path),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start removes a marker left over from an earlier run and begins watching
// the marker's directory.
func (w *StopWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return fmt.Errorf("stop watcher already started")
	}

	if err := os.Remove(w.path); err == nil {
		w.logger.Info("removed stale stop file", log.String("path", w.path))
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("remove stale stop file: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watcher = watcher

	// The marker may have appeared between the removal and Add.
	if _, err := os.Stat(w.path); err == nil {
		w.trip("stop file present")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.watchLoop(watchCtx, watcher)

	w.logger.Debug("watching for stop file", log.String("path", w.path))
	return nil
}

// Continue reports whether the stop file has not appeared yet.
func (w *StopWatcher) Continue() bool {
	return !w.stopped.Load()
}

// Done is closed once the stop file appears.
func (w *StopWatcher) Done() <-chan struct{} {
	return w.done
}

// Close stops watching.
func (w *StopWatcher) Close() error {
	w.mu.Lock()
	cancel := w.cancel
	watcher := w.watcher
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	if watcher != nil {
		return watcher.Close()
	}
	return nil
}

func (w *StopWatcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.trip("stop file created")

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("stop watcher error", log.Err(err))
		}
	}
}

func (w *StopWatcher) trip(reason string) {
	w.once.Do(func() {
		w.stopped.Store(true)
		close(w.done)
		w.logger.Info(reason, log.String("path", w.path))
	})
}
