package tab

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bodgit/apoc/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixture = []byte{
	0x00, 0x00, 0x00, 0x00,
	0x10, 0x00, 0x00, 0x00,
	0x78, 0x56, 0x34, 0x12,
}

func TestReadAll(t *testing.T) {
	tbl, err := ReadAll(bytes.NewReader(fixture), SpriteScale)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	v, err := tbl.Record(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)

	off, err := tbl.Offset(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0x10), off)

	_, err = tbl.Record(3)
	assert.True(t, errors.Is(err, codec.ErrOutOfBounds))
	_, err = tbl.Record(-1)
	assert.True(t, errors.Is(err, codec.ErrOutOfBounds))
}

func TestReadAllScale(t *testing.T) {
	tbl, err := ReadAll(bytes.NewReader(fixture), VoxelScale)
	require.NoError(t, err)

	off, err := tbl.Offset(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0x40), off)
}

func TestReadAllEmpty(t *testing.T) {
	tbl, err := ReadAll(bytes.NewReader(nil), SpriteScale)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestReadAllTruncated(t *testing.T) {
	_, err := ReadAll(bytes.NewReader(fixture[:6]), SpriteScale)
	assert.True(t, errors.Is(err, codec.ErrTruncatedIndex))
}

func TestRecord(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		index int
		want  uint32
		err   error
	}{
		{"first", fixture, 0, 0, nil},
		{"last", fixture, 2, 0x12345678, nil},
		{"past end", fixture, 3, 0, codec.ErrOutOfBounds},
		{"truncated", fixture[:5], 0, 0, codec.ErrTruncatedIndex},
		{"empty", nil, 0, 0, codec.ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Record(bytes.NewReader(tt.data), tt.index)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestOffset(t *testing.T) {
	off, err := Offset(bytes.NewReader(fixture), 1, VoxelScale)
	require.NoError(t, err)
	assert.Equal(t, int64(0x40), off)
}
