/*
Package loftemps implements a decoder for LOFTEMPS voxel slice files.

A LOFTEMPS DAT file holds 2D occupancy bitmaps, each one horizontal layer of
a voxel volume. Its TAB index gives the offset of each slice in units of four
bytes. Each slice is:

	u32 width (a multiple of 8)
	u32 height
	height rows of ceil(width/32) u32 words, most significant bit first

Slices are referenced by position, so unlike sprite sheets a single bad
slice fails the whole load.
*/
package loftemps

import (
	"encoding/binary"
	"io"

	"github.com/bodgit/apoc/codec"
	"github.com/bodgit/apoc/tab"
	"github.com/bradfitz/iter"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

const wordBits = 32

// Slice is a width by height grid of bits.
type Slice struct {
	Width  int
	Height int

	// bits holds Width/8 bytes per row, most significant bit leftmost.
	bits []byte
}

func (s *Slice) stride() int {
	return s.Width / 8
}

// At reports whether (x, y) is occupied. It is false outside the slice.
func (s *Slice) At(x, y int) bool {
	if x < 0 || y < 0 || x >= s.Width || y >= s.Height {
		return false
	}
	return s.bits[y*s.stride()+x/8]&(0x80>>uint(x%8)) != 0
}

// Count returns the number of occupied cells.
func (s *Slice) Count() int {
	n := 0
	for _, b := range s.bits {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

// LOFTemps is every slice from one DAT/TAB pair, in index order.
type LOFTemps struct {
	slices []*Slice
}

// Len returns the number of slices.
func (l *LOFTemps) Len() int {
	return len(l.slices)
}

// Slice returns slice i, or nil if i is out of range.
func (l *LOFTemps) Slice(i int) *Slice {
	if i < 0 || i >= len(l.slices) {
		return nil
	}
	return l.slices[i]
}

func decodeSlice(r *codec.Reader) (*Slice, error) {
	width, err := r.U32()
	if err != nil {
		return nil, err
	}
	height, err := r.U32()
	if err != nil {
		return nil, err
	}
	if width%8 != 0 {
		return nil, errors.Wrapf(codec.ErrInvalidWidth, "width %d is not a multiple of 8", width)
	}

	s := &Slice{
		Width:  int(width),
		Height: int(height),
	}

	// A zero width slice has no words, whatever its height.
	if s.Width == 0 {
		return s, nil
	}

	// Grow the bitmap as words arrive rather than trusting the header
	// with an up front allocation.
	var tmp [4]byte
	for range iter.N(s.Height) {
		for x := 0; x < s.Width; x += wordBits {
			word, err := r.U32()
			if err != nil {
				return nil, err
			}
			// Big-endian bytes of the word are its columns in order.
			binary.BigEndian.PutUint32(tmp[:], word)
			n := (s.Width - x) / 8
			if n > len(tmp) {
				n = len(tmp)
			}
			s.bits = append(s.bits, tmp[:n]...)
		}
	}
	return s, nil
}

func decodeAt(r *codec.Reader, index int, off int64) (*Slice, error) {
	if err := r.Seek(off); err != nil {
		return nil, &codec.RecordError{Index: index, Offset: off, Err: err}
	}
	s, err := decodeSlice(r)
	if err != nil {
		return nil, &codec.RecordError{Index: index, Offset: off, Err: err}
	}
	return s, nil
}

// Decode decodes every slice listed in index from data.
func Decode(data, index io.ReadSeeker) (*LOFTemps, error) {
	t, err := tab.ReadAll(index, tab.VoxelScale)
	if err != nil {
		return nil, err
	}

	l := &LOFTemps{
		slices: make([]*Slice, 0, t.Len()),
	}
	r := codec.NewReader(data)
	for i := 0; i < t.Len(); i++ {
		off, _ := t.Offset(i)
		s, err := decodeAt(r, i, off)
		if err != nil {
			return nil, err
		}
		glog.V(2).Infof("loftemps: slice %d at %#x is %dx%d", i, off, s.Width, s.Height)
		l.slices = append(l.slices, s)
	}
	return l, nil
}

// DecodeOne decodes only slice which from data, reading just its record
// from index.
func DecodeOne(data, index io.ReadSeeker, which int) (*Slice, error) {
	off, err := tab.Offset(index, which, tab.VoxelScale)
	if err != nil {
		return nil, err
	}
	return decodeAt(codec.NewReader(data), which, off)
}
