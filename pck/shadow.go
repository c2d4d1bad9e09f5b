package pck

import (
	"github.com/bodgit/apoc/codec"
	"github.com/pkg/errors"
)

const ditherWidth = 4

// ditherTable holds the pattern each dither index repeats. Index 0 is a
// transparent run and never consulted.
var ditherTable = [...][ditherWidth]bool{
	{},
	{true, false, true, false},
	{false, true, false, true},
	{true, false, false, false},
	{false, true, false, false},
	{false, false, true, false},
	{false, false, false, true},
}

type shadowHeader struct {
	H1     uint8
	H2     uint8
	Unused uint16
	Width  uint16
	Height uint16
}

type shadowRun struct {
	count uint8
	index uint8
}

func readShadowRun(r *codec.Reader) (shadowRun, error) {
	var run shadowRun
	var err error
	if run.count, err = r.U8(); err != nil || run.count == shadowEnd {
		return run, err
	}
	run.index, err = r.U8()
	return run, err
}

// decodeShadow decodes one dithered shadow sprite. Each run covers count
// repetitions of a 4 pixel pattern; set pattern pixels become the shade
// index and the rest are written as transparent. Pattern pixels falling
// outside the image are dropped.
func decodeShadow(r *codec.Reader, o *Options) (*Image, error) {
	canvas := o.canvas()
	shade := o.shade()

	var h shadowHeader
	if err := r.Struct(&h); err != nil {
		return nil, err
	}
	m, err := newImage(int(h.Width), int(h.Height))
	if err != nil {
		return nil, err
	}

	pos := 0
	s := codec.NewStream(r, readShadowRun, func(run shadowRun) bool { return run.count == shadowEnd })
	for s.Next() {
		run := s.Header()
		if run.index == 0 {
			pos += int(run.count) * ditherWidth
			continue
		}
		if int(run.index) >= len(ditherTable) {
			s.Fail(errors.Wrapf(codec.ErrInvalidDitherIndex, "dither index %d at offset %#x", run.index, r.Offset()-1))
			break
		}
		pattern := ditherTable[run.index]
		for n := 0; n < int(run.count); n++ {
			for _, on := range pattern {
				if x, y := pos%canvas, pos/canvas; x < m.Width && y < m.Height {
					var c uint8
					if on {
						c = shade
					}
					m.Pix[y*m.Width+x] = c
				}
				pos++
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return m.finish(), nil
}
