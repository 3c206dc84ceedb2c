package gifship_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/gifship/pkg/gifship"
)

func writeFrame(dest string, c color.Color) error {
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var whiteSink = gifship.FrameSinkFunc(func(ctx context.Context, dest string) error {
	return writeFrame(dest, color.White)
})

type recordingHandler struct {
	gifship.BaseEventHandler

	mu     sync.Mutex
	phases []gifship.Phase
	frames int
}

func (h *recordingHandler) OnPhaseChange(e gifship.PhaseChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phases = append(h.phases, e.Current)
}

func (h *recordingHandler) OnFrameCaptured(e gifship.FrameEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames++
}

func stopAfter(n int) func() bool {
	var calls atomic.Int64
	return func() bool { return calls.Add(1) <= int64(n) }
}

func decodeFile(t *testing.T, path string) *gif.GIF {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	return g
}

func TestRecord(t *testing.T) {
	dir := t.TempDir()
	cfg := gifship.Config{
		CaptureDir: filepath.Join(dir, "captured"),
		OutputFile: filepath.Join(dir, "out.gif"),
		FPS:        100,
		Workers:    2,
		Comment:    "test",
	}
	// Leftovers from an earlier run must not leak into this one.
	if err := os.MkdirAll(cfg.CaptureDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := writeFrame(filepath.Join(cfg.CaptureDir, "000099.png"), color.Black); err != nil {
		t.Fatal(err)
	}

	handler := &recordingHandler{}
	g, err := gifship.New(cfg,
		gifship.WithFrameSink(whiteSink),
		gifship.WithStop(stopAfter(4)),
		gifship.WithEventHandler(handler),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	report, err := g.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if report.Issued != 4 || report.Frames != 4 || report.Delay != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.SessionID == "" {
		t.Error("missing session id")
	}

	out := decodeFile(t, cfg.OutputFile)
	if len(out.Image) != 4 || out.LoopCount != 1 {
		t.Errorf("decoded %d frames, loop %d", len(out.Image), out.LoopCount)
	}

	if _, err := os.Stat(filepath.Join(cfg.CaptureDir, "session.json")); err != nil {
		t.Errorf("manifest: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.CaptureDir, "000099.png")); !os.IsNotExist(err) {
		t.Error("stale frame not removed")
	}

	want := []gifship.Phase{gifship.PhaseCapturing, gifship.PhaseSequencing, gifship.PhaseEncoding, gifship.PhaseDone}
	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.phases) != len(want) {
		t.Fatalf("phases = %v, want %v", handler.phases, want)
	}
	for i := range want {
		if handler.phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", handler.phases, want)
		}
	}
	if handler.frames != 4 {
		t.Errorf("frame events = %d, want 4", handler.frames)
	}
}

func TestRecord_StopFile(t *testing.T) {
	dir := t.TempDir()
	stopFile := filepath.Join(dir, "gifship.stop")
	var captures atomic.Int64
	sink := gifship.FrameSinkFunc(func(ctx context.Context, dest string) error {
		if captures.Add(1) == 3 {
			if err := os.WriteFile(stopFile, nil, 0o644); err != nil {
				return err
			}
		}
		return writeFrame(dest, color.White)
	})

	g, err := gifship.New(gifship.Config{
		CaptureDir: filepath.Join(dir, "captured"),
		OutputFile: filepath.Join(dir, "out.gif"),
		FPS:        50,
		Duration:   10 * time.Second,
		StopFile:   stopFile,
	}, gifship.WithFrameSink(sink))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	start := time.Now()
	report, err := g.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("stop file ignored, recording ran %v", time.Since(start))
	}
	if report.Issued < 3 || uint64(report.Frames) != report.Issued {
		t.Errorf("report = %+v", report)
	}
}

func TestRecord_CancelStillEncodes(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	var captures atomic.Int64
	sink := gifship.FrameSinkFunc(func(_ context.Context, dest string) error {
		if captures.Add(1) == 2 {
			cancel()
		}
		return writeFrame(dest, color.White)
	})

	g, err := gifship.New(gifship.Config{
		CaptureDir: filepath.Join(dir, "captured"),
		OutputFile: filepath.Join(dir, "out.gif"),
		FPS:        20,
		Duration:   time.Minute,
	}, gifship.WithFrameSink(sink))
	if err != nil {
		t.Fatal(err)
	}

	report, err := g.Record(ctx)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if report.Frames < 2 {
		t.Errorf("frames = %d, want >= 2", report.Frames)
	}
	decodeFile(t, filepath.Join(dir, "out.gif"))
}

func TestRecord_NothingCaptured(t *testing.T) {
	dir := t.TempDir()
	sink := gifship.FrameSinkFunc(func(ctx context.Context, dest string) error {
		return errors.New("no display")
	})
	g, err := gifship.New(gifship.Config{
		CaptureDir: filepath.Join(dir, "captured"),
		OutputFile: filepath.Join(dir, "out.gif"),
		FPS:        100,
	}, gifship.WithFrameSink(sink), gifship.WithStop(stopAfter(3)))
	if err != nil {
		t.Fatal(err)
	}

	report, err := g.Record(context.Background())
	if !errors.Is(err, gifship.ErrEmptyCapture) {
		t.Fatalf("Record = %v, want ErrEmptyCapture", err)
	}
	if len(report.Failed) != 3 {
		t.Errorf("failed = %v, want 3 entries", report.Failed)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.gif")); !os.IsNotExist(err) {
		t.Error("output created for an empty capture")
	}
}

func TestEncode_ExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	frames := filepath.Join(dir, "frames")
	if err := os.MkdirAll(frames, 0o755); err != nil {
		t.Fatal(err)
	}
	for i, name := range []string{"000001.png", "000002.png", "000003.png"} {
		c := color.Gray{Y: uint8(80 * i)}
		if err := writeFrame(filepath.Join(frames, name), c); err != nil {
			t.Fatal(err)
		}
	}

	g, err := gifship.New(gifship.Config{
		CaptureDir: filepath.Join(dir, "unused"),
		OutputFile: filepath.Join(dir, "out.gif"),
		FPS:        15,
		Duration:   time.Second,
		Loop:       true,
	}, gifship.WithFrameSink(whiteSink))
	if err != nil {
		t.Fatal(err)
	}

	report, err := g.Encode(context.Background(), frames)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if report.Frames != 3 || report.Delay != 6 || report.LoopCount != 0 {
		t.Errorf("report = %+v", report)
	}
	out := decodeFile(t, filepath.Join(dir, "out.gif"))
	if len(out.Image) != 3 || out.Delay[0] != 6 || out.LoopCount != 0 {
		t.Errorf("decoded %d frames, delay %d, loop %d", len(out.Image), out.Delay[0], out.LoopCount)
	}
}

func TestNew_Validation(t *testing.T) {
	dir := t.TempDir()
	base := gifship.Config{
		CaptureDir: filepath.Join(dir, "captured"),
		OutputFile: filepath.Join(dir, "out.gif"),
	}

	tests := []struct {
		name   string
		mutate func(*gifship.Config)
		opts   []gifship.Option
	}{
		{"no stop condition", func(c *gifship.Config) {}, nil},
		{"negative fps", func(c *gifship.Config) { c.FPS = -1; c.Duration = time.Second }, nil},
		{"negative duration", func(c *gifship.Config) { c.Duration = -time.Second }, nil},
		{"unknown backend", func(c *gifship.Config) { c.Duration = time.Second; c.Backend = "vnc" }, nil},
		{"region with portal", func(c *gifship.Config) {
			c.Duration = time.Second
			c.Backend = gifship.BackendPortal
			c.Region = image.Rect(0, 0, 10, 10)
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			opts := append([]gifship.Option{gifship.WithFrameSink(whiteSink)}, tt.opts...)
			if _, err := gifship.New(cfg, opts...); !errors.Is(err, gifship.ErrInvalidConfig) {
				t.Errorf("New = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	var c gifship.Config
	c.SetDefaults()

	if c.FPS != gifship.DefaultFPS || c.Workers < 1 || c.Backend != gifship.BackendScreenshot {
		t.Errorf("defaults = %+v", c)
	}
	if c.CaptureDir != filepath.Join("/home/tester", "Desktop", "out", "captured") {
		t.Errorf("CaptureDir = %s", c.CaptureDir)
	}
	if c.OutputFile != filepath.Join("/home/tester", "Desktop", "out", "out.gif") {
		t.Errorf("OutputFile = %s", c.OutputFile)
	}
}

func TestPhase_String(t *testing.T) {
	if gifship.PhaseEncoding.String() != "Encoding" || gifship.PhaseFailed.String() != "Failed" {
		t.Errorf("unexpected phase names")
	}
}
