package pck

import (
	"io"

	"github.com/bodgit/apoc/codec"
	"github.com/golang/glog"
)

// DecodeRaw reads a width by height uncompressed image from r. Any bytes
// after the image are left unread, but their presence is logged since some
// shipped files are larger than the image they hold.
func DecodeRaw(r io.Reader, width, height int) (*Image, error) {
	m, err := newImage(width, height)
	if err != nil {
		return nil, err
	}

	if err := codec.NewReader(r).ReadFull(m.Pix); err != nil {
		return nil, err
	}

	var tmp [1]byte
	if n, _ := r.Read(tmp[:]); n != 0 {
		glog.Warningf("pck: raw %s is larger than %dx%d, ignoring the remainder", originOf(r), width, height)
	}

	m.Set = newSetID(originOf(r))
	return m.finish(), nil
}
