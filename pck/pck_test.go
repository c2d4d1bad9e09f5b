package pck

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/apoc/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	legacyA = new(builder).u16(0, 4).u8(1, 2, 3, 4).u16(2, 2).u8(5, 6).u16(0xffff).Bytes()
	legacyB = new(builder).u16(0, 2).u8(7, 7).u16(0xffff).Bytes()
	legacyC = new(builder).u16(0, 1).u8(1).u16(0, 6).u8(9, 9, 9, 9, 9, 9).u16(0, 1).u8(1).u16(0xffff).Bytes()
	v2A     = v2Sprite(0, 2, 0, 1).u32(0).u8(0, 2, 0, 0).u8(3, 4).u32(0xffffffff).Bytes()
	blankV2 = new(builder).u16(0).Bytes()
)

func TestFormatString(t *testing.T) {
	for _, f := range []Format{Auto, Legacy, V2, Strat, Shadow} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("bogus")
	assert.Error(t, err)
	assert.Equal(t, "Format(9)", Format(9).String())
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
		err  error
	}{
		{"legacy", legacyA, Legacy, nil},
		{"v2", v2A, V2, nil},
		{"unknown", []byte{2, 0}, 0, codec.ErrUnsupportedCompressionMethod},
		{"empty", nil, 0, codec.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.data)
			f, err := Detect(r)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
			assert.Equal(t, int64(len(tt.data)), int64(r.Len()))
		})
	}
}

func TestDecodeAll(t *testing.T) {
	data, index := sheet(legacyA, legacyB, legacyC, []byte{0, 0, 4, 0, 1})

	s, err := DecodeAll(data, index, Auto, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 6, s.MaxWidth())
	assert.Equal(t, 3, s.MaxHeight())

	require.NotNil(t, s.Image(0))
	assert.Equal(t, [][]uint8{{1, 2, 3, 4}, {0, 0, 5, 6}}, rows(s.Image(0)))
	assert.Equal(t, 0, s.Image(0).Index)
	assert.Equal(t, 1, s.Image(1).Index)

	require.NotNil(t, s.Image(2))
	assert.Equal(t, 3, s.Image(2).Height)

	// The last record is truncated and skipped.
	assert.Nil(t, s.Image(3))
	assert.Equal(t, 1, s.Errors())
	var re *codec.RecordError
	require.True(t, errors.As(s.Err(3), &re))
	assert.Equal(t, 3, re.Index)
	assert.Equal(t, int64(len(legacyA)+len(legacyB)+len(legacyC)), re.Offset)
	assert.True(t, errors.Is(s.Err(3), codec.ErrUnexpectedEOF))
	assert.Nil(t, s.Image(4))
}

func TestDecodeAllBlank(t *testing.T) {
	data, index := sheet(v2A, blankV2, v2A)

	s, err := DecodeAll(data, index, V2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.NotNil(t, s.Image(0))
	assert.Nil(t, s.Image(1))
	assert.NoError(t, s.Err(1))
	assert.NotNil(t, s.Image(2))
	assert.Equal(t, 0, s.Errors())
}

func TestDecodeAllStrat(t *testing.T) {
	tile := new(builder).u16(2, 3).u8(9, 8, 7).u16(0xffff).Bytes()
	bad := new(builder).u16(7, 2).u8(1, 1).u16(0xffff).Bytes()
	data, index := sheet(tile, bad, tile)

	s, err := DecodeAll(data, index, Strat, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, s.MaxWidth())
	assert.NotNil(t, s.Image(0))
	assert.Nil(t, s.Image(1))
	assert.True(t, errors.Is(s.Err(1), codec.ErrOutOfBounds))
	assert.NotNil(t, s.Image(2))
}

func TestDecodeAllFatal(t *testing.T) {
	data, _ := sheet(legacyA)

	_, err := DecodeAll(data, bytes.NewReader([]byte{0, 0, 0}), Legacy, nil)
	assert.True(t, errors.Is(err, codec.ErrTruncatedIndex))

	_, err = DecodeAll(bytes.NewReader([]byte{9, 0}), bytes.NewReader(nil), Auto, nil)
	assert.True(t, errors.Is(err, codec.ErrUnsupportedCompressionMethod))
}

func TestDecodeOne(t *testing.T) {
	data, index := sheet(legacyA, legacyB)

	m, err := DecodeOne(data, index, Legacy, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]uint8{{7, 7}}, rows(m))
	assert.Equal(t, 1, m.Index)

	_, err = DecodeOne(data, index, Legacy, 2, nil)
	assert.True(t, errors.Is(err, codec.ErrOutOfBounds))

	data, index = sheet(blankV2)
	m, err = DecodeOne(data, index, V2, 0, nil)
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestSetIDFromFile(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "UNIT.PCK")
	tabFile := filepath.Join(dir, "UNIT.TAB")
	data, index := sheet(legacyA, legacyB)
	require.NoError(t, os.WriteFile(dataFile, readAll(t, data), 0o644))
	require.NoError(t, os.WriteFile(tabFile, readAll(t, index), 0o644))

	open := func(name string) *os.File {
		f, err := os.Open(name)
		require.NoError(t, err)
		t.Cleanup(func() { f.Close() })
		return f
	}

	s, err := DecodeAll(open(dataFile), open(tabFile), Auto, nil)
	require.NoError(t, err)
	assert.Equal(t, dataFile, s.Origin)
	assert.NotZero(t, s.ID)

	m, err := DecodeOne(open(dataFile), open(tabFile), Auto, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, s.ID, m.Set)
	assert.Equal(t, s.Image(1).Pix, m.Pix)
}

func readAll(t *testing.T, r *bytes.Reader) []byte {
	b := make([]byte, r.Len())
	_, err := r.Read(b)
	require.NoError(t, err)
	return b
}
