package codec

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Reader reads little-endian values from an underlying reader while keeping
// track of the current offset, so failures can say where they happened.
type Reader struct {
	r   io.Reader
	off int64
	tmp [4]byte
}

// NewReader returns a Reader reading from r. The offset starts at zero.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the offset of the next byte to be read.
func (r *Reader) Offset() int64 {
	return r.off
}

// Seek moves to the absolute offset off. The underlying reader must be an
// io.Seeker.
func (r *Reader) Seek(off int64) error {
	s, ok := r.r.(io.Seeker)
	if !ok {
		return errors.Wrap(ErrIO, "reader is not seekable")
	}
	if _, err := s.Seek(off, io.SeekStart); err != nil {
		return errors.Wrapf(ErrIO, "seek to %#x: %v", off, err)
	}
	r.off = off
	return nil
}

// ReadFull fills b completely.
func (r *Reader) ReadFull(b []byte) error {
	n, err := io.ReadFull(r.r, b)
	off := r.off
	r.off += int64(n)
	switch err {
	case nil:
		return nil
	case io.EOF, io.ErrUnexpectedEOF:
		return errors.Wrapf(ErrUnexpectedEOF, "at offset %#x: want %d bytes, got %d", off, len(b), n)
	default:
		return errors.Wrapf(ErrIO, "at offset %#x: %v", off, err)
	}
}

// Bytes reads the next n bytes into a newly allocated slice.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := r.ReadFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Skip discards the next n bytes.
func (r *Reader) Skip(n int) error {
	got, err := io.CopyN(io.Discard, r.r, int64(n))
	off := r.off
	r.off += got
	switch err {
	case nil:
		return nil
	case io.EOF:
		return errors.Wrapf(ErrUnexpectedEOF, "at offset %#x: skipping %d bytes, got %d", off, n, got)
	default:
		return errors.Wrapf(ErrIO, "at offset %#x: %v", off, err)
	}
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.ReadFull(r.tmp[:1]); err != nil {
		return 0, err
	}
	return r.tmp[0], nil
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.ReadFull(r.tmp[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.tmp[:2]), nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.ReadFull(r.tmp[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.tmp[:4]), nil
}

// Struct reads a fixed-size little-endian structure into v, which must be a
// pointer acceptable to binary.Read.
func (r *Reader) Struct(v interface{}) error {
	b, err := r.Bytes(binary.Size(v))
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, v)
}
