package apoc

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func le(v ...interface{}) []byte {
	b := new(bytes.Buffer)
	for _, x := range v {
		binary.Write(b, binary.LittleEndian, x)
	}
	return b.Bytes()
}

// writeSheet writes a data file and its TAB under dir.
func writeSheet(t *testing.T, dir, data, index string, scale int, records ...[]byte) {
	var d bytes.Buffer
	var offsets []uint32
	for _, r := range records {
		offsets = append(offsets, uint32(d.Len()/scale))
		d.Write(r)
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, data)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, data), d.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, index), le(offsets), 0o644))
}

var (
	legacyA = le(uint16(0), uint16(4), []byte{1, 2, 3, 4}, uint16(2), uint16(2), []byte{5, 6}, uint16(0xffff))
	legacyB = le(uint16(0), uint16(2), []byte{7, 7}, uint16(0xffff))
	v2Blank = le(uint16(0))
	v2A     = le(uint16(1), uint8(0), uint8(0), uint16(0), uint16(2), uint16(0), uint16(1), uint32(0), []byte{0, 2, 0, 0}, []byte{3, 4}, uint32(0xffffffff))
	sliceA  = le(uint32(32), uint32(1), uint32(0xffff0000))
	sliceB  = le(uint32(8), uint32(1), uint32(0x80000000))
)
