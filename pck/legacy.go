package pck

import "github.com/bodgit/apoc/codec"

type legacyRow struct {
	skip  uint16
	width uint16
}

func readLegacyRow(r *codec.Reader) (legacyRow, error) {
	var row legacyRow
	var err error
	if row.skip, err = r.U16(); err != nil || row.skip == legacyEnd {
		return row, err
	}
	row.width, err = r.U16()
	return row, err
}

type scanline struct {
	x   int
	pix []byte
}

// decodeLegacy decodes one sprite stored as a run of opaque pixels per row.
// The image is as wide as the widest run; runs are placed at their skip
// modulo the canvas width and clipped to the image.
func decodeLegacy(r *codec.Reader, o *Options) (*Image, error) {
	canvas := o.canvas()

	var rows []scanline
	width := 0

	s := codec.NewStream(r, readLegacyRow, func(row legacyRow) bool { return row.skip == legacyEnd })
	for s.Next() {
		row := s.Header()
		pix, err := r.Bytes(int(row.width))
		if err != nil {
			s.Fail(err)
			break
		}
		rows = append(rows, scanline{x: int(row.skip) % canvas, pix: pix})
		if int(row.width) > width {
			width = int(row.width)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	m, err := newImage(width, len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		for i, c := range row.pix {
			if row.x+i >= width {
				break
			}
			m.Pix[y*width+row.x+i] = c
		}
	}
	return m.finish(), nil
}
