package pck

import (
	"bytes"
	"encoding/binary"
)

// builder assembles little-endian fixtures.
type builder struct {
	bytes.Buffer
}

func (b *builder) u8(v ...uint8) *builder {
	b.Write(v)
	return b
}

func (b *builder) u16(v ...uint16) *builder {
	for _, x := range v {
		binary.Write(&b.Buffer, binary.LittleEndian, x)
	}
	return b
}

func (b *builder) u32(v ...uint32) *builder {
	for _, x := range v {
		binary.Write(&b.Buffer, binary.LittleEndian, x)
	}
	return b
}

// sheet concatenates records into a data file and builds the matching TAB.
func sheet(records ...[]byte) (*bytes.Reader, *bytes.Reader) {
	data := new(builder)
	index := new(builder)
	for _, r := range records {
		index.u32(uint32(data.Len()))
		data.Write(r)
	}
	return bytes.NewReader(data.Bytes()), bytes.NewReader(index.Bytes())
}

// rows splits an image into rows for readable comparisons.
func rows(m *Image) [][]uint8 {
	out := make([][]uint8, m.Height)
	for y := range out {
		out[y] = m.Pix[y*m.Width : (y+1)*m.Width]
	}
	return out
}
