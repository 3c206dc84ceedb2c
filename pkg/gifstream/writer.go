package gifstream

import (
	"bufio"
	"compress/lzw"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
)

// Writer errors.
var (
	// ErrFinalized is returned by any call after Close.
	ErrFinalized = errors.New("gifstream: stream finalized")

	// ErrFrameSize is returned when a frame's dimensions differ from the template.
	ErrFrameSize = errors.New("gifstream: frame size does not match template")
)

const (
	sectionExtension  = 0x21
	sectionImage      = 0x2C
	sectionTrailer    = 0x3B
	extGraphicControl = 0xF9
	extComment        = 0xFE
	extApplication    = 0xFF
)

// State is the lifecycle state of a Writer.
type State int

const (
	StateUnopened State = iota
	StatePrepared
	StateWriting
	StateFinalized
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateUnopened:
		return "Unopened"
	case StatePrepared:
		return "Prepared"
	case StateWriting:
		return "Writing"
	case StateFinalized:
		return "Finalized"
	default:
		return "Unknown"
	}
}

// Options control the per-stream metadata.
type Options struct {
	// Delay is the per-frame delay in hundredths of a second.
	Delay int

	// LoopCount is the NETSCAPE2.0 loop field. 0 loops forever.
	LoopCount int

	// Comment is written once as a comment extension when non-empty.
	Comment string
}

// Writer appends frames to a GIF stream. It is not safe for concurrent use.
type Writer struct {
	w     *bufio.Writer
	tmpl  Template
	opts  Options
	state State

	bits    int
	control [8]byte // graphic control extension shared by every frame
	frame   *image.Paletted
	frames  int
}

// NewWriter prepares a stream on dst. Nothing is written until the first
// frame or Close. Close does not close dst.
func NewWriter(dst io.Writer, tmpl Template, opts Options) (*Writer, error) {
	if tmpl.Width <= 0 || tmpl.Height <= 0 {
		return nil, ErrEmptyFrame
	}
	if len(tmpl.Palette) == 0 || len(tmpl.Palette) > 256 {
		return nil, fmt.Errorf("gifstream: palette size %d out of range", len(tmpl.Palette))
	}
	if opts.Delay < 0 || opts.Delay > 0xFFFF {
		return nil, fmt.Errorf("gifstream: delay %d out of range", opts.Delay)
	}
	if opts.LoopCount < 0 || opts.LoopCount > 0xFFFF {
		return nil, fmt.Errorf("gifstream: loop count %d out of range", opts.LoopCount)
	}

	w := &Writer{
		w:     bufio.NewWriter(dst),
		tmpl:  tmpl,
		opts:  opts,
		state: StatePrepared,
		bits:  tmpl.tableBits(),
	}
	// Disposal none, no user input, no transparent colour.
	w.control = [8]byte{
		sectionExtension, extGraphicControl, 0x04,
		0x00,
		byte(opts.Delay), byte(opts.Delay >> 8),
		0x00,
		0x00,
	}
	return w, nil
}

// State returns the current state.
func (w *Writer) State() State { return w.state }

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

// WriteFrame appends img. Images that are not already paletted with the
// template palette are dithered onto it.
func (w *Writer) WriteFrame(img image.Image) error {
	if w.state == StateFinalized {
		return ErrFinalized
	}
	if !w.tmpl.Fits(img) {
		b := img.Bounds()
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), w.tmpl.Width, w.tmpl.Height)
	}
	if w.state == StatePrepared {
		if err := w.writeHeader(); err != nil {
			return err
		}
		w.state = StateWriting
	}

	pm := w.paletted(img)

	if _, err := w.w.Write(w.control[:]); err != nil {
		return err
	}
	desc := []byte{
		sectionImage,
		0x00, 0x00, 0x00, 0x00,
		byte(w.tmpl.Width), byte(w.tmpl.Width >> 8),
		byte(w.tmpl.Height), byte(w.tmpl.Height >> 8),
		0x00,
	}
	if _, err := w.w.Write(desc); err != nil {
		return err
	}

	litWidth := w.bits
	if litWidth < 2 {
		litWidth = 2
	}
	if err := w.w.WriteByte(byte(litWidth)); err != nil {
		return err
	}

	bw := &blockWriter{w: w.w}
	lz := lzw.NewWriter(bw, lzw.LSB, litWidth)
	width := pm.Rect.Dx()
	for y := pm.Rect.Min.Y; y < pm.Rect.Max.Y; y++ {
		off := pm.PixOffset(pm.Rect.Min.X, y)
		if _, err := lz.Write(pm.Pix[off : off+width]); err != nil {
			lz.Close()
			return err
		}
	}
	if err := lz.Close(); err != nil {
		return err
	}
	if err := bw.close(); err != nil {
		return err
	}

	w.frames++
	return nil
}

// Close writes the trailer and flushes. A stream closed before any frame is
// still a complete, frameless GIF. Close is valid exactly once.
func (w *Writer) Close() error {
	if w.state == StateFinalized {
		return ErrFinalized
	}
	var err error
	if w.state == StatePrepared {
		err = w.writeHeader()
	}
	w.state = StateFinalized
	if werr := w.w.WriteByte(sectionTrailer); werr != nil && err == nil {
		err = werr
	}
	if ferr := w.w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func (w *Writer) writeHeader() error {
	size := 1 << w.bits
	b := make([]byte, 0, 13+3*size+19+len(w.opts.Comment)+8)

	b = append(b, "GIF89a"...)
	b = append(b, byte(w.tmpl.Width), byte(w.tmpl.Width>>8))
	b = append(b, byte(w.tmpl.Height), byte(w.tmpl.Height>>8))
	// Global colour table present; colour resolution and table size share one value.
	b = append(b, 0x80|byte(w.bits-1)<<4|byte(w.bits-1), 0x00, 0x00)
	for i := 0; i < size; i++ {
		if i < len(w.tmpl.Palette) {
			r, g, bl, _ := w.tmpl.Palette[i].RGBA()
			b = append(b, byte(r>>8), byte(g>>8), byte(bl>>8))
		} else {
			b = append(b, 0x00, 0x00, 0x00)
		}
	}

	b = append(b, sectionExtension, extApplication, 0x0B)
	b = append(b, "NETSCAPE2.0"...)
	b = append(b, 0x03, 0x01, byte(w.opts.LoopCount), byte(w.opts.LoopCount>>8), 0x00)

	if w.opts.Comment != "" {
		b = append(b, sectionExtension, extComment)
		c := []byte(w.opts.Comment)
		for len(c) > 0 {
			n := len(c)
			if n > 255 {
				n = 255
			}
			b = append(b, byte(n))
			b = append(b, c[:n]...)
			c = c[n:]
		}
		b = append(b, 0x00)
	}

	_, err := w.w.Write(b)
	return err
}

// paletted returns img as a paletted image using the template palette.
func (w *Writer) paletted(img image.Image) *image.Paletted {
	if p, ok := img.(*image.Paletted); ok && samePalette(p.Palette, w.tmpl.Palette) {
		return p
	}
	if w.frame == nil {
		w.frame = image.NewPaletted(w.tmpl.Bounds(), w.tmpl.Palette)
	}
	draw.FloydSteinberg.Draw(w.frame, w.frame.Bounds(), img, img.Bounds().Min)
	return w.frame
}
