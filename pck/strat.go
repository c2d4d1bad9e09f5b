package pck

import (
	"github.com/bodgit/apoc/codec"
	"github.com/pkg/errors"
)

const (
	stratWidth  = 8
	stratHeight = stratWidth
)

type stratRun struct {
	skip  uint16
	count uint16
}

func readStratRun(r *codec.Reader) (stratRun, error) {
	var run stratRun
	var err error
	if run.skip, err = r.U16(); err != nil || run.skip == stratEnd {
		return run, err
	}
	run.count, err = r.U16()
	return run, err
}

// decodeStrat decodes one 8x8 strategy map tile. A run that strays outside
// the tile is an error rather than being wrapped or clipped.
func decodeStrat(r *codec.Reader, o *Options) (*Image, error) {
	canvas := o.canvas()

	m, err := newImage(stratWidth, stratHeight)
	if err != nil {
		return nil, err
	}

	s := codec.NewStream(r, readStratRun, func(run stratRun) bool { return run.skip == stratEnd })
	for s.Next() {
		run := s.Header()
		pos := int(run.skip)
		for i := 0; i < int(run.count); i++ {
			x, y := pos%canvas, pos/canvas
			if x >= stratWidth || y >= stratHeight {
				s.Fail(errors.Wrapf(codec.ErrOutOfBounds, "pixel (%d,%d) outside %dx%d tile", x, y, stratWidth, stratHeight))
				break
			}
			c, err := r.U8()
			if err != nil {
				s.Fail(err)
				break
			}
			m.Pix[y*stratWidth+x] = c
			pos++
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return m.finish(), nil
}
