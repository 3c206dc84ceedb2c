package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/gifship/internal/domain"
	"github.com/bft-labs/gifship/internal/ports"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// fakeClock advances only when the scheduler sleeps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

func useClock(s *Scheduler, c *fakeClock) {
	s.now = c.Now
	s.sleep = c.Sleep
}

// pngSink writes a small solid frame to every destination, failing for the
// sequence numbers in fail.
type pngSink struct {
	fail map[uint64]bool

	mu    sync.Mutex
	calls int
}

func (s *pngSink) Capture(ctx context.Context, dest string) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	seq, ok := domain.ParseFrameName(filepath.Base(dest), domain.FrameExtension)
	if !ok {
		return errors.New("unexpected destination " + dest)
	}
	if s.fail[seq] {
		return errors.New("screen unavailable")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(8, 4, color.White)); err != nil {
		return err
	}
	return os.WriteFile(dest, buf.Bytes(), 0o644)
}

func (s *pngSink) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// countingSink records every Write and Close on an output sink.
type countingSink struct {
	buf      bytes.Buffer
	failAt   int // fail writes once this many bytes were accepted; 0 never fails
	closes   int
	closeErr error
}

func (s *countingSink) Write(p []byte) (int, error) {
	if s.failAt > 0 && s.buf.Len()+len(p) > s.failAt {
		return 0, errors.New("disk full")
	}
	return s.buf.Write(p)
}

func (s *countingSink) Close() error {
	s.closes++
	return s.closeErr
}

func (s *countingSink) opener() ports.SinkOpener {
	return func() (io.WriteCloser, error) { return s, nil }
}

// memManifests is an in-memory ports.ManifestRepository.
type memManifests struct {
	mu    sync.Mutex
	m     domain.Manifest
	saved bool
}

func (r *memManifests) Load(ctx context.Context) (domain.Manifest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m, r.saved, nil
}

func (r *memManifests) Save(ctx context.Context, m domain.Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m = m
	r.saved = true
	return nil
}
