/*
Package pck implements decoders for the PCK family of sprite sheets and the
plain RAW indexed image format.

A sheet is a pair of files: the PCK data file and a TAB index whose records
are byte offsets of each sprite within the data file. Every decoder produces
palette indices only; index 0 is transparent by convention and colour is
resolved later against a palette.

Several of the encodings address pixels as if drawing onto a single virtual
screen 640 pixels wide, so a position p maps to (p % 640, p / 640). That
stride is Options.Canvas.

The sprite encodings are:

Legacy: rows of {u16 skip, u16 width, width bytes}, ended by skip 0xffff.

V2: u16 compression method; 0 is a blank record, 1 is followed by a bounding
box and rows of {u32 pixel skip, u8 column, u8 pixels, u8 bytes, u8 pad},
ended by pixel skip 0xffffffff.

Strat: 8 by 8 tiles of {u16 pixel skip, u16 count, count bytes}, ended by
pixel skip 0xffff.

Shadow: an 8 byte header then runs of {u8 count, u8 dither index}, ended by
count 0xff. Pixels come from a fixed 4 pixel dither table, not the stream.
*/
package pck

import (
	"fmt"
	"io"
	"strings"

	"github.com/bodgit/apoc/codec"
	"github.com/bodgit/apoc/tab"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

const (
	// DefaultCanvas is the width of the virtual screen pixel offsets were
	// authored against.
	DefaultCanvas = 640

	// DefaultShade is the palette index shadow sprites are drawn with.
	DefaultShade = 127

	legacyEnd = 0xffff
	v2End     = 0xffffffff
	stratEnd  = 0xffff
	shadowEnd = 0xff
)

// Options control decoding. The zero value selects the defaults.
type Options struct {
	// Canvas is the stride of the virtual screen; DefaultCanvas if zero.
	Canvas int
	// Shade is the palette index written for the set pixels of a shadow
	// dither pattern; DefaultShade if zero.
	Shade uint8
}

func (o *Options) canvas() int {
	if o == nil || o.Canvas <= 0 {
		return DefaultCanvas
	}
	return o.Canvas
}

func (o *Options) shade() uint8 {
	if o == nil || o.Shade == 0 {
		return DefaultShade
	}
	return o.Shade
}

// Format identifies the encoding of a PCK data file.
type Format int

// Known formats. Auto resolves to Legacy or V2 using Detect.
const (
	Auto Format = iota
	Legacy
	V2
	Strat
	Shadow
)

var formatNames = [...]string{
	Auto:   "auto",
	Legacy: "legacy",
	V2:     "v2",
	Strat:  "strat",
	Shadow: "shadow",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// ParseFormat is the inverse of Format.String.
func ParseFormat(s string) (Format, error) {
	for i, n := range formatNames {
		if strings.EqualFold(s, n) {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("pck: unknown format %q", s)
}

type decodeFunc func(*codec.Reader, *Options) (*Image, error)

func (f Format) decoder() (decodeFunc, error) {
	switch f {
	case Legacy:
		return decodeLegacy, nil
	case V2:
		return decodeV2, nil
	case Strat:
		return decodeStrat, nil
	case Shadow:
		return decodeShadow, nil
	}
	return nil, errors.Wrapf(codec.ErrUnsupportedCompressionMethod, "pck: no decoder for format %v", f)
}

// Detect reads the version tag at the start of a sheet data file and reports
// whether it is a Legacy or V2 sheet. The first record of a Legacy sheet
// starts with a zero skip, the first record of a V2 sheet with compression
// method 1. r is left positioned at the start.
func Detect(r io.ReadSeeker) (Format, error) {
	cr := codec.NewReader(r)
	if err := cr.Seek(0); err != nil {
		return 0, err
	}
	tag, err := cr.U16()
	if err != nil {
		return 0, errors.Wrap(err, "pck: reading version tag")
	}
	if err := cr.Seek(0); err != nil {
		return 0, err
	}

	switch tag {
	case 0:
		return Legacy, nil
	case 1:
		return V2, nil
	}
	return 0, errors.Wrapf(codec.ErrUnsupportedCompressionMethod, "pck: unknown version tag %#04x", tag)
}

func resolve(r io.ReadSeeker, f Format) (Format, error) {
	if f != Auto {
		return f, nil
	}
	return Detect(r)
}

func decodeAt(cr *codec.Reader, dec decodeFunc, o *Options, index int, off int64) (*Image, error) {
	if err := cr.Seek(off); err != nil {
		return nil, &codec.RecordError{Index: index, Offset: off, Err: err}
	}
	m, err := dec(cr, o)
	if err != nil {
		return nil, &codec.RecordError{Index: index, Offset: off, Err: err}
	}
	return m, nil
}

// DecodeAll decodes every sprite listed in index from data.
//
// A failure reading index is returned as an error. A failure decoding a
// single sprite is not: that sprite is logged, left nil in the returned set
// and its error is available from ImageSet.Err. Blank V2 records are also
// left nil, without an error.
func DecodeAll(data, index io.ReadSeeker, f Format, o *Options) (*ImageSet, error) {
	f, err := resolve(data, f)
	if err != nil {
		return nil, err
	}
	dec, err := f.decoder()
	if err != nil {
		return nil, err
	}

	t, err := tab.ReadAll(index, tab.SpriteScale)
	if err != nil {
		return nil, err
	}

	s := newImageSet(originOf(data), t.Len())
	cr := codec.NewReader(data)
	for i := 0; i < t.Len(); i++ {
		off, _ := t.Offset(i)
		m, err := decodeAt(cr, dec, o, i, off)
		if err != nil {
			glog.Warningf("pck: %s: skipping %v sprite: %v", s.Origin, f, err)
			s.errs[i] = err
			continue
		}
		if m == nil {
			glog.V(2).Infof("pck: %s: record %d is blank", s.Origin, i)
			continue
		}
		s.add(i, m)
	}
	return s, nil
}

// DecodeOne decodes only sprite which from data, reading just its record
// from index. It returns a nil image and nil error for a blank V2 record.
func DecodeOne(data, index io.ReadSeeker, f Format, which int, o *Options) (*Image, error) {
	f, err := resolve(data, f)
	if err != nil {
		return nil, err
	}
	dec, err := f.decoder()
	if err != nil {
		return nil, err
	}

	off, err := tab.Offset(index, which, tab.SpriteScale)
	if err != nil {
		return nil, err
	}

	m, err := decodeAt(codec.NewReader(data), dec, o, which, off)
	if err != nil || m == nil {
		return nil, err
	}
	m.Set = newSetID(originOf(data))
	m.Index = which
	return m, nil
}

func originOf(r io.Reader) string {
	if n, ok := r.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}
