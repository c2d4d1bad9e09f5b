package apoc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bodgit/apoc/pck"
	"github.com/pkg/errors"
)

// Kind selects the decoder a request is for.
type Kind int

// Request kinds, named after the tag that starts the request string.
const (
	PCK Kind = iota
	PCKLegacy
	PCKV2
	PCKStrat
	PCKShadow
	LOFTemps
	Raw
)

var kindTags = [...]string{
	PCK:       "PCK",
	PCKLegacy: "PCKLEGACY",
	PCKV2:     "PCKV2",
	PCKStrat:  "PCKSTRAT",
	PCKShadow: "PCKSHADOW",
	LOFTemps:  "LOFTEMPS",
	Raw:       "RAW",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindTags) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindTags[k]
}

// Format returns the sprite format for the PCK kinds.
func (k Kind) Format() pck.Format {
	switch k {
	case PCKLegacy:
		return pck.Legacy
	case PCKV2:
		return pck.V2
	case PCKStrat:
		return pck.Strat
	case PCKShadow:
		return pck.Shadow
	}
	return pck.Auto
}

// Sprites reports whether k decodes to sprites.
func (k Kind) Sprites() bool {
	return k <= PCKShadow || k == Raw
}

// All is the Record of a request for a whole set.
const All = -1

// Request is a parsed resource request string. The forms are
//
//	TAG:data:index[:record]  for the PCK kinds and LOFTEMPS
//	RAW:data:width:height
//
// Paths are relative to the loader root and may not contain colons.
type Request struct {
	Kind   Kind
	Data   string
	Index  string
	Record int
	Width  int
	Height int
}

// ErrBadRequest is returned for malformed or mismatched request strings.
var ErrBadRequest = errors.New("bad resource request")

// ParseRequest parses s.
func ParseRequest(s string) (Request, error) {
	fields := strings.Split(s, ":")
	if len(fields) < 2 {
		return Request{}, errors.Wrapf(ErrBadRequest, "%q", s)
	}

	req := Request{Kind: -1, Record: All}
	for i, tag := range kindTags {
		if strings.EqualFold(fields[0], tag) {
			req.Kind = Kind(i)
		}
	}
	if req.Kind < 0 {
		return Request{}, errors.Wrapf(ErrBadRequest, "%q: unknown tag %q", s, fields[0])
	}

	var err error
	switch {
	case req.Kind == Raw:
		if len(fields) != 4 {
			return Request{}, errors.Wrapf(ErrBadRequest, "%q: want RAW:data:width:height", s)
		}
		req.Data = fields[1]
		if req.Width, err = strconv.Atoi(fields[2]); err != nil {
			return Request{}, errors.Wrapf(ErrBadRequest, "%q: width: %v", s, err)
		}
		if req.Height, err = strconv.Atoi(fields[3]); err != nil {
			return Request{}, errors.Wrapf(ErrBadRequest, "%q: height: %v", s, err)
		}
	case len(fields) == 3 || len(fields) == 4:
		req.Data, req.Index = fields[1], fields[2]
		if len(fields) == 4 {
			if req.Record, err = strconv.Atoi(fields[3]); err != nil || req.Record < 0 {
				return Request{}, errors.Wrapf(ErrBadRequest, "%q: bad record %q", s, fields[3])
			}
		}
	default:
		return Request{}, errors.Wrapf(ErrBadRequest, "%q: want %s:data:index[:record]", s, req.Kind)
	}

	if req.Data == "" || (req.Kind != Raw && req.Index == "") {
		return Request{}, errors.Wrapf(ErrBadRequest, "%q: empty path", s)
	}
	return req, nil
}

// String returns the canonical request string, which is also the cache key.
func (r Request) String() string {
	switch {
	case r.Kind == Raw:
		return fmt.Sprintf("%s:%s:%d:%d", r.Kind, r.Data, r.Width, r.Height)
	case r.Record == All:
		return fmt.Sprintf("%s:%s:%s", r.Kind, r.Data, r.Index)
	}
	return fmt.Sprintf("%s:%s:%s:%d", r.Kind, r.Data, r.Index, r.Record)
}

// Whole returns the request for the set r is a member of.
func (r Request) Whole() Request {
	if r.Kind != Raw {
		r.Record = All
	}
	return r
}
