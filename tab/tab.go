/*
Package tab implements a reader for TAB index files.

A TAB file is a flat array of little-endian uint32 values with no header. The
value at position i locates record i within the companion data file once it
has been multiplied by a format-specific scale: sprite tables hold byte
offsets directly, voxel tables hold offsets in units of four bytes. An empty
file is a valid, empty table.
*/
package tab

import (
	"encoding/binary"
	"io"

	"github.com/bodgit/apoc/codec"
	"github.com/pkg/errors"
)

// RecordSize is the size in bytes of each record.
const RecordSize = 4

// Scale converts a record value into a byte offset.
type Scale int64

// Scales used by the known data formats.
const (
	SpriteScale Scale = 1
	VoxelScale  Scale = 4
)

// Table is a fully read index table.
type Table struct {
	records []uint32
	scale   Scale
}

// ReadAll reads every record from r until EOF.
func ReadAll(r io.Reader, scale Scale) (*Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(codec.ErrIO, "tab: %v", err)
	}
	if len(b)%RecordSize != 0 {
		return nil, errors.Wrapf(codec.ErrTruncatedIndex, "tab: length %d is not a multiple of %d", len(b), RecordSize)
	}

	t := &Table{
		records: make([]uint32, len(b)/RecordSize),
		scale:   scale,
	}
	for i := range t.records {
		t.records[i] = binary.LittleEndian.Uint32(b[i*RecordSize:])
	}
	return t, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Record returns the raw value of record i.
func (t *Table) Record(i int) (uint32, error) {
	if i < 0 || i >= len(t.records) {
		return 0, errors.Wrapf(codec.ErrOutOfBounds, "tab: record %d of %d", i, len(t.records))
	}
	return t.records[i], nil
}

// Offset returns the byte offset into the data file of record i.
func (t *Table) Offset(i int) (int64, error) {
	v, err := t.Record(i)
	if err != nil {
		return 0, err
	}
	return int64(v) * int64(t.scale), nil
}

// Record reads only record i from r, without reading the rest of the table.
// The length of r is still checked so that a truncated table is reported the
// same way as by ReadAll.
func Record(r io.ReadSeeker, i int) (uint32, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.Wrapf(codec.ErrIO, "tab: %v", err)
	}
	if size%RecordSize != 0 {
		return 0, errors.Wrapf(codec.ErrTruncatedIndex, "tab: length %d is not a multiple of %d", size, RecordSize)
	}
	if n := size / RecordSize; i < 0 || int64(i) >= n {
		return 0, errors.Wrapf(codec.ErrOutOfBounds, "tab: record %d of %d", i, n)
	}

	cr := codec.NewReader(r)
	if err := cr.Seek(int64(i) * RecordSize); err != nil {
		return 0, err
	}
	return cr.U32()
}

// Offset reads only record i from r and returns it as a byte offset.
func Offset(r io.ReadSeeker, i int, scale Scale) (int64, error) {
	v, err := Record(r, i)
	if err != nil {
		return 0, err
	}
	return int64(v) * int64(scale), nil
}
