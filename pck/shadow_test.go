package pck

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bodgit/apoc/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shd = DefaultShade

func decodeShadowBytes(b []byte, o *Options) (*Image, error) {
	return decodeShadow(codec.NewReader(bytes.NewReader(b)), o)
}

func shadowSprite(width, height uint16) *builder {
	return new(builder).u8(0, 0).u16(0, width, height)
}

func TestDecodeShadow(t *testing.T) {
	b := shadowSprite(12, 1).
		u8(1, 1).
		u8(1, 0).
		u8(1, 2).
		u8(0xff)

	m, err := decodeShadowBytes(b.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, [][]uint8{{shd, 0, shd, 0, 0, 0, 0, 0, 0, shd, 0, shd}}, rows(m))
}

func TestDecodeShadowPatterns(t *testing.T) {
	want := [][]uint8{
		nil,
		{shd, 0, shd, 0},
		{0, shd, 0, shd},
		{shd, 0, 0, 0},
		{0, shd, 0, 0},
		{0, 0, shd, 0},
		{0, 0, 0, shd},
	}

	for i := 1; i <= 6; i++ {
		b := shadowSprite(8, 1).u8(2, uint8(i)).u8(0xff)
		m, err := decodeShadowBytes(b.Bytes(), nil)
		require.NoError(t, err)
		// The pattern repeats every 4 pixels.
		assert.Equal(t, append(append([]uint8{}, want[i]...), want[i]...), m.Pix, "index %d", i)
	}
}

func TestDecodeShadowTransparentRun(t *testing.T) {
	// 160 transparent runs of 4 pixels land exactly on the second row.
	b := shadowSprite(4, 2).
		u8(160, 0).
		u8(1, 4).
		u8(0xff)

	m, err := decodeShadowBytes(b.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, [][]uint8{{0, 0, 0, 0}, {0, shd, 0, 0}}, rows(m))
}

func TestDecodeShadowClips(t *testing.T) {
	b := shadowSprite(2, 1).u8(3, 1).u8(0xff)

	m, err := decodeShadowBytes(b.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, [][]uint8{{shd, 0}}, rows(m))
}

func TestDecodeShadowShade(t *testing.T) {
	b := shadowSprite(4, 1).u8(1, 3).u8(0xff)

	m, err := decodeShadowBytes(b.Bytes(), &Options{Shade: 42})
	require.NoError(t, err)
	assert.Equal(t, []uint8{42, 0, 0, 0}, m.Pix)
}

func TestDecodeShadowErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"short header", new(builder).u8(0, 0).u16(0).Bytes(), codec.ErrUnexpectedEOF},
		{"zero size", shadowSprite(0, 4).u8(0xff).Bytes(), codec.ErrInvalidDimensions},
		{"bad index", shadowSprite(4, 1).u8(1, 7).u8(0xff).Bytes(), codec.ErrInvalidDitherIndex},
		{"missing index", shadowSprite(4, 1).u8(1).Bytes(), codec.ErrUnexpectedEOF},
		{"missing sentinel", shadowSprite(4, 1).u8(1, 1).Bytes(), codec.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeShadowBytes(tt.data, nil)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}
