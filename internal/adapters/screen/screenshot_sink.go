// Package screen implements ports.FrameSink on top of the native screen
// grabbers exposed by github.com/vova616/screenshot (X11, Windows GDI, macOS).
package screen

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/vova616/screenshot"

	"github.com/bft-labs/gifship/internal/adapters/fs"
)

// GrabFunc returns one screen image.
type GrabFunc func() (*image.RGBA, error)

// ScreenshotSink captures the full screen, or a fixed region of it, and
// writes each grab as a PNG.
type ScreenshotSink struct {
	grab    GrabFunc
	encoder png.Encoder
}

// NewScreenshotSink captures the whole primary screen.
func NewScreenshotSink() *ScreenshotSink {
	return NewScreenshotSinkWithGrab(screenshot.CaptureScreen)
}

// NewRegionSink captures region, clipped to the screen at construction time.
func NewRegionSink(region image.Rectangle) (*ScreenshotSink, error) {
	screen, err := screenshot.ScreenRect()
	if err != nil {
		return nil, fmt.Errorf("screen bounds: %w", err)
	}
	r := region.Intersect(screen)
	if r.Empty() {
		return nil, fmt.Errorf("region %v outside screen %v", region, screen)
	}
	return NewScreenshotSinkWithGrab(func() (*image.RGBA, error) {
		return screenshot.CaptureRect(r)
	}), nil
}

// NewScreenshotSinkWithGrab uses grab as the image source.
func NewScreenshotSinkWithGrab(grab GrabFunc) *ScreenshotSink {
	return &ScreenshotSink{
		grab:    grab,
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

// Capture grabs the screen and writes it to dest atomically.
func (s *ScreenshotSink) Capture(ctx context.Context, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := s.grab()
	if err != nil {
		return fmt.Errorf("grab screen: %w", err)
	}
	if img == nil || img.Rect.Empty() {
		return fmt.Errorf("grab screen: empty image")
	}
	return fs.WriteAtomic(dest, 0o644, func(w io.Writer) error {
		return s.encoder.Encode(w, img)
	})
}
