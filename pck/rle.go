package pck

import (
	"github.com/bodgit/apoc/codec"
	"github.com/pkg/errors"
)

const (
	v2Blank = 0
	v2RLE   = 1
)

type v2Header struct {
	Reserved1  uint8
	Reserved2  uint8
	LeftMost   uint16
	RightMost  uint16
	TopMost    uint16
	BottomMost uint16
}

type v2Row struct {
	skip        uint32
	columnStart uint8
	pixelsInRow uint8
	bytesInRow  uint8
	padding     uint8
}

func readV2Row(r *codec.Reader) (v2Row, error) {
	var row v2Row
	var err error
	if row.skip, err = r.U32(); err != nil || row.skip == v2End {
		return row, err
	}
	var tmp [4]byte
	if err = r.ReadFull(tmp[:]); err != nil {
		return row, err
	}
	row.columnStart, row.pixelsInRow, row.bytesInRow, row.padding = tmp[0], tmp[1], tmp[2], tmp[3]
	return row, nil
}

// decodeV2 decodes one bounding box RLE sprite. It returns nil for a blank
// record.
func decodeV2(r *codec.Reader, o *Options) (*Image, error) {
	canvas := o.canvas()

	method, err := r.U16()
	if err != nil {
		return nil, err
	}
	switch method {
	case v2Blank:
		return nil, nil
	case v2RLE:
	default:
		return nil, errors.Wrapf(codec.ErrUnsupportedCompressionMethod, "compression method %d", method)
	}

	var h v2Header
	if err := r.Struct(&h); err != nil {
		return nil, err
	}

	// The image always starts at the origin; LeftMost only limits where
	// the bytesInRow form of a row starts.
	left, right, bottom := int(h.LeftMost), int(h.RightMost), int(h.BottomMost)
	m, err := newImage(right, bottom)
	if err != nil {
		return nil, err
	}

	s := codec.NewStream(r, readV2Row, func(row v2Row) bool { return row.skip == v2End })
	for s.Next() {
		if err := decodeV2Row(r, m, s.Header(), canvas, left); err != nil {
			s.Fail(err)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return m.finish(), nil
}

func decodeV2Row(r *codec.Reader, m *Image, row v2Row, canvas, left int) error {
	y := int(row.skip / uint32(canvas))
	if y >= m.Height {
		// Nothing says how long this row's payload is, so the stream
		// cannot be realigned past it.
		if row.bytesInRow != 0 || row.pixelsInRow != 0 {
			return errors.Wrapf(codec.ErrMalformedRecord, "row %d below bottom %d at offset %#x", y, m.Height, r.Offset())
		}
		return nil
	}

	if row.bytesInRow != 0 {
		// Purpose unknown.
		if err := r.Skip(4); err != nil {
			return err
		}
		for x := left; x < int(row.bytesInRow); x++ {
			c, err := r.U8()
			if err != nil {
				return err
			}
			if x < m.Width {
				m.Pix[y*m.Width+x] = c
			}
		}
		return nil
	}

	for i := 0; i < int(row.pixelsInRow); i++ {
		c, err := r.U8()
		if err != nil {
			return err
		}
		if x := int(row.columnStart) + i; x < m.Width {
			m.Pix[y*m.Width+x] = c
		}
	}
	return nil
}
