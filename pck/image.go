package pck

// This file contains the in-memory models every decoder produces. Anything
// to do with turning palette indices into colours is left to the caller via
// Image.Paletted.

import (
	"image"
	"image/color"

	"github.com/bodgit/apoc/codec"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// SetID identifies the ImageSet an Image was decoded as part of. It is
// derived from the origin file name, so a standalone Image and the set
// decoded from the same file agree.
type SetID uint64

func newSetID(origin string) SetID {
	if origin == "" {
		return 0
	}
	return SetID(xxhash.Sum64String(origin))
}

// Image is a single decoded sprite: one palette index per pixel, row-major.
type Image struct {
	// Pix holds Width*Height palette indices.
	Pix    []uint8
	Width  int
	Height int

	// Set and Index locate the image within the set it was decoded from.
	// They are lookup keys only; the set owns the image, not the reverse.
	Set   SetID
	Index int

	tight image.Rectangle
}

func newImage(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(codec.ErrInvalidDimensions, "%dx%d", width, height)
	}
	return &Image{
		Pix:    make([]uint8, width*height),
		Width:  width,
		Height: height,
	}, nil
}

// NewImage returns an image holding a copy of pix, which must have exactly
// width*height entries.
func NewImage(width, height int, pix []uint8) (*Image, error) {
	m, err := newImage(width, height)
	if err != nil {
		return nil, err
	}
	if len(pix) != len(m.Pix) {
		return nil, errors.Wrapf(codec.ErrInvalidDimensions, "%d pixels for %dx%d", len(pix), width, height)
	}
	copy(m.Pix, pix)
	return m.finish(), nil
}

// finish computes the tight bounds once decoding is complete.
func (m *Image) finish() *Image {
	r := image.Rectangle{}
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, c := range row {
			if c != 0 {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	m.tight = r
	return m
}

// ColorIndexAt returns the palette index at (x, y), or 0 outside the image.
func (m *Image) ColorIndexAt(x, y int) uint8 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Bounds returns the full extent of the image.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Tight returns the smallest rectangle containing every non-zero pixel. It
// is empty for a fully transparent image.
func (m *Image) Tight() image.Rectangle {
	return m.tight
}

// Paletted returns a copy of the image as an *image.Paletted using p.
func (m *Image) Paletted(p color.Palette) *image.Paletted {
	dst := image.NewPaletted(m.Bounds(), p)
	copy(dst.Pix, m.Pix)
	return dst
}

// ImageSet is every sprite decoded from one sheet, in index order. Slots for
// blank or undecodable records are nil.
type ImageSet struct {
	ID     SetID
	Origin string

	images []*Image
	errs   map[int]error
	max    image.Point
}

func newImageSet(origin string, n int) *ImageSet {
	return &ImageSet{
		ID:     newSetID(origin),
		Origin: origin,
		images: make([]*Image, n),
		errs:   make(map[int]error),
	}
}

func (s *ImageSet) add(i int, m *Image) {
	m.Set = s.ID
	m.Index = i
	s.images[i] = m
	if m.Width > s.max.X {
		s.max.X = m.Width
	}
	if m.Height > s.max.Y {
		s.max.Y = m.Height
	}
}

// Len returns the number of records, including nil ones.
func (s *ImageSet) Len() int {
	return len(s.images)
}

// Image returns image i, or nil if it is out of range, blank or failed to
// decode.
func (s *ImageSet) Image(i int) *Image {
	if i < 0 || i >= len(s.images) {
		return nil
	}
	return s.images[i]
}

// Err returns the error that prevented image i from decoding, if any.
func (s *ImageSet) Err(i int) error {
	return s.errs[i]
}

// Errors returns the number of records that failed to decode.
func (s *ImageSet) Errors() int {
	return len(s.errs)
}

// MaxWidth returns the widest image in the set.
func (s *ImageSet) MaxWidth() int {
	return s.max.X
}

// MaxHeight returns the tallest image in the set.
func (s *ImageSet) MaxHeight() int {
	return s.max.Y
}
