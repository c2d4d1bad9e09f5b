/*
Package palette loads the 256 colour palettes used to view decoded sprites.

The games ship palettes as 768 bytes: 256 RGB triplets in VGA DAC order,
each component 6 bits wide. Entry 0 is treated as transparent, matching the
convention that palette index 0 in a sprite is a hole.
*/
package palette

import (
	"image/color"
	"io"

	"github.com/bodgit/apoc/codec"
	"github.com/pkg/errors"
)

const (
	numColors = 256
	size      = numColors * 3
)

// expand scales a 6-bit component to 8 bits, leaving 8-bit palettes alone.
func expand(c uint8, sixBit bool) uint8 {
	if !sixBit {
		return c
	}
	return c<<2 | c>>4
}

// Decode reads a 768 byte palette from r. If every component is below 64
// the palette is assumed to be 6-bit VGA and is scaled up.
func Decode(r io.Reader) (color.Palette, error) {
	var b [size]byte
	if err := codec.NewReader(r).ReadFull(b[:]); err != nil {
		return nil, errors.Wrap(err, "palette")
	}

	sixBit := true
	for _, c := range b {
		if c >= 64 {
			sixBit = false
			break
		}
	}

	p := make(color.Palette, numColors)
	for i := range p {
		p[i] = color.RGBA{
			expand(b[i*3+0], sixBit),
			expand(b[i*3+1], sixBit),
			expand(b[i*3+2], sixBit),
			0xff,
		}
	}
	p[0] = color.RGBA{}
	return p, nil
}

// Greyscale returns a palette mapping index i to grey level i, with index 0
// transparent. It is useful when the real palette is not at hand.
func Greyscale() color.Palette {
	p := make(color.Palette, numColors)
	for i := range p {
		p[i] = color.RGBA{uint8(i), uint8(i), uint8(i), 0xff}
	}
	p[0] = color.RGBA{}
	return p
}
