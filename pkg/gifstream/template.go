package gifstream

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
)

// ErrEmptyFrame is returned for images with no pixels.
var ErrEmptyFrame = errors.New("gifstream: empty frame")

// maxDimension is the largest width or height a GIF descriptor can hold.
const maxDimension = 1<<16 - 1

// Template is the colour and geometry shared by every frame of a stream.
type Template struct {
	Width   int
	Height  int
	Palette color.Palette
}

// NewTemplate derives a template from the first frame. Paletted images keep
// their own palette; anything else is mapped onto the Plan 9 palette.
func NewTemplate(first image.Image) (Template, error) {
	b := first.Bounds()
	if b.Empty() {
		return Template{}, ErrEmptyFrame
	}
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		return Template{}, fmt.Errorf("gifstream: frame %dx%d exceeds %d", b.Dx(), b.Dy(), maxDimension)
	}

	pal := color.Palette(palette.Plan9)
	if p, ok := first.(*image.Paletted); ok && len(p.Palette) > 0 && len(p.Palette) <= 256 {
		pal = append(color.Palette(nil), p.Palette...)
	}
	return Template{Width: b.Dx(), Height: b.Dy(), Palette: pal}, nil
}

// Bounds returns the frame rectangle anchored at the origin.
func (t Template) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.Width, t.Height)
}

// Fits reports whether img has the template's dimensions.
func (t Template) Fits(img image.Image) bool {
	b := img.Bounds()
	return b.Dx() == t.Width && b.Dy() == t.Height
}

// tableBits returns n such that 1<<n is the padded colour table size.
func (t Template) tableBits() int {
	n := 1
	for 1<<n < len(t.Palette) {
		n++
	}
	return n
}

func samePalette(a, b color.Palette) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		r1, g1, b1, a1 := a[i].RGBA()
		r2, g2, b2, a2 := b[i].RGBA()
		if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
			return false
		}
	}
	return true
}
