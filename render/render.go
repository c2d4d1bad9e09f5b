/*
Package render turns decoded sprites and voxel slices into standard images
for export and preview.

Sprites are palette indices, so rendering needs a palette. Scaling uses
nearest neighbour resampling to keep pixel edges hard, and GIF output goes
through a median cut quantizer when the scaled image is no longer paletted.
*/
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"io"

	"github.com/bodgit/apoc/loftemps"
	"github.com/bodgit/apoc/pck"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Options control rendering. The zero value renders at 1:1 with the full
// canvas and up to 256 colours.
type Options struct {
	// Scale is an integer magnification; 1 if zero.
	Scale int
	// Crop trims the sprite to its tight bounds.
	Crop bool
	// Colors limits the palette of GIF output; 256 if zero.
	Colors int
}

const maxColors = 256

func (o *Options) scale() int {
	if o == nil || o.Scale < 1 {
		return 1
	}
	return o.Scale
}

func (o *Options) colors() int {
	if o == nil || o.Colors < 1 || o.Colors > maxColors {
		return maxColors
	}
	return o.Colors
}

var (
	// Voxel colours for set and clear cells of a slice.
	Solid = color.RGBA{0xff, 0xff, 0xff, 0xff}
	Empty = color.RGBA{0x20, 0x20, 0x20, 0xff}
)

func scale(m image.Image, o *Options) image.Image {
	n := o.scale()
	if n == 1 {
		return m
	}
	b := m.Bounds()
	return resize.Resize(uint(b.Dx()*n), uint(b.Dy()*n), m, resize.NearestNeighbor)
}

// Sprite renders m using p.
func Sprite(m *pck.Image, p color.Palette, o *Options) image.Image {
	var img image.Image = m.Paletted(p)
	if o != nil && o.Crop {
		t := m.Tight()
		if t.Empty() {
			t = image.Rect(0, 0, 1, 1)
		}
		img = img.(*image.Paletted).SubImage(t)
	}
	return scale(img, o)
}

// Sheet lays every sprite of s out on a grid of cells sized to the largest
// sprite, cols cells across. Missing sprites leave their cell transparent.
func Sheet(s *pck.ImageSet, p color.Palette, cols int, o *Options) image.Image {
	if cols < 1 {
		cols = 1
	}
	w, h := s.MaxWidth(), s.MaxHeight()
	rows := (s.Len() + cols - 1) / cols
	if w == 0 || h == 0 || rows == 0 {
		return image.NewPaletted(image.Rect(0, 0, 1, 1), p)
	}

	dst := image.NewPaletted(image.Rect(0, 0, w*cols, h*rows), p)
	for i := 0; i < s.Len(); i++ {
		m := s.Image(i)
		if m == nil {
			continue
		}
		at := image.Pt(i%cols*w, i/cols*h)
		for y := 0; y < m.Height; y++ {
			copy(dst.Pix[dst.PixOffset(at.X, at.Y+y):], m.Pix[y*m.Width:(y+1)*m.Width])
		}
	}
	return scale(dst, o)
}

// Slice renders a voxel slice, one pixel per cell.
func Slice(sl *loftemps.Slice, o *Options) image.Image {
	dst := image.NewPaletted(image.Rect(0, 0, sl.Width, sl.Height), color.Palette{Empty, Solid})
	for y := 0; y < sl.Height; y++ {
		for x := 0; x < sl.Width; x++ {
			if sl.At(x, y) {
				dst.SetColorIndex(x, y, 1)
			}
		}
	}
	return scale(dst, o)
}

// Paletted returns m as an *image.Paletted of at most o.Colors colours,
// quantizing if necessary.
func Paletted(m image.Image, o *Options) *image.Paletted {
	n := o.colors()
	b := m.Bounds()
	if pm, ok := m.(*image.Paletted); ok && len(pm.Palette) <= n {
		return pm
	}

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}

// Format is an output image encoding.
type Format int

// Supported encodings.
const (
	PNG Format = iota
	GIF
)

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png", ".png", "PNG", ".PNG":
		return PNG, nil
	case "gif", ".gif", "GIF", ".GIF":
		return GIF, nil
	}
	return 0, errors.Errorf("render: unknown output format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == GIF {
		return "image/gif"
	}
	return "image/png"
}

// Encode writes m to w as f.
func Encode(w io.Writer, m image.Image, f Format, o *Options) error {
	switch f {
	case PNG:
		return png.Encode(w, m)
	case GIF:
		return gif.Encode(w, Paletted(m, o), &gif.Options{NumColors: o.colors()})
	}
	return errors.Errorf("render: unknown output format %d", f)
}
