/*
Package codec holds the binary plumbing shared by the PCK and LOFTEMPS
decoders.

Every integer in these formats is little-endian. Records are located through
a separate TAB index file and are terminated by an out-of-range sentinel
rather than carrying a length prefix, so decoders are written as a loop over a
Stream of record headers.
*/
package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds reported by the decoders. Use errors.Is or errors.Cause to
// test for them; the returned errors carry offsets and sizes as context.
var (
	ErrIO                           = errors.New("i/o error")
	ErrUnexpectedEOF                = errors.New("unexpected end of file")
	ErrTruncatedIndex               = errors.New("truncated index")
	ErrInvalidDimensions            = errors.New("invalid dimensions")
	ErrInvalidWidth                 = errors.New("invalid width")
	ErrUnsupportedCompressionMethod = errors.New("unsupported compression method")
	ErrInvalidDitherIndex           = errors.New("invalid dither index")
	ErrOutOfBounds                  = errors.New("out of bounds")
	ErrMalformedRecord              = errors.New("malformed record")
)

// RecordError records the failure of decoding a single record from a data
// file, along with where that record lives.
type RecordError struct {
	Index  int
	Offset int64
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d at offset %#x: %v", e.Index, e.Offset, e.Err)
}

// Cause returns the underlying error, for use with errors.Cause.
func (e *RecordError) Cause() error { return e.Err }

// Unwrap returns the underlying error, for use with errors.Is.
func (e *RecordError) Unwrap() error { return e.Err }
