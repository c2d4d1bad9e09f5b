package render

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/bodgit/apoc/loftemps"
	"github.com/bodgit/apoc/pck"
	"github.com/bodgit/apoc/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sprite(t *testing.T) *pck.Image {
	m, err := pck.NewImage(4, 3, []uint8{
		0, 0, 0, 0,
		0, 5, 6, 0,
		0, 0, 0, 0,
	})
	require.NoError(t, err)
	return m
}

func TestSprite(t *testing.T) {
	p := palette.Greyscale()
	m := sprite(t)

	tables := map[string]struct {
		opts   *Options
		bounds image.Rectangle
	}{
		"default": {nil, image.Rect(0, 0, 4, 3)},
		"scaled":  {&Options{Scale: 3}, image.Rect(0, 0, 12, 9)},
		"cropped": {&Options{Crop: true}, image.Rect(1, 1, 3, 2)},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			img := Sprite(m, p, table.opts)
			assert.Equal(t, table.bounds, img.Bounds())
		})
	}

	img := Sprite(m, p, nil)
	assert.Equal(t, p[5], img.At(1, 1))
	assert.Equal(t, color.RGBA{}, img.At(0, 0))
}

func TestSheet(t *testing.T) {
	var data bytes.Buffer
	data.Write([]byte{0, 0, 2, 0, 1, 2, 0xff, 0xff})
	data.Write([]byte{0, 0, 1, 0, 3, 0, 0, 1, 0, 4, 0xff, 0xff})
	s, err := pck.DecodeAll(bytes.NewReader(data.Bytes()), bytes.NewReader([]byte{0, 0, 0, 0, 8, 0, 0, 0}), pck.Legacy, nil)
	require.NoError(t, err)

	img := Sheet(s, palette.Greyscale(), 2, nil).(*image.Paletted)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	assert.Equal(t, []uint8{1, 2, 3, 0, 0, 0, 4, 0}, img.Pix)
}

func sliceOf(b []byte) (*loftemps.Slice, error) {
	return loftemps.DecodeOne(bytes.NewReader(b), bytes.NewReader([]byte{0, 0, 0, 0}), 0)
}

func TestSlice(t *testing.T) {
	sl, err := sliceOf([]byte{8, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0x81, 0, 0, 0, 0x01})
	require.NoError(t, err)

	img := Slice(sl, nil).(*image.Paletted)
	assert.Equal(t, image.Rect(0, 0, 8, 2), img.Bounds())
	assert.Equal(t, Solid, img.At(0, 0))
	assert.Equal(t, Solid, img.At(7, 0))
	assert.Equal(t, Empty, img.At(1, 0))
	assert.Equal(t, Solid, img.At(7, 1))
}

func TestPaletted(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			m.Set(x, y, color.RGBA{uint8(x * 16), uint8(y * 16), 0, 0xff})
		}
	}

	pm := Paletted(m, &Options{Colors: 8})
	assert.True(t, len(pm.Palette) <= 8)
	assert.Equal(t, m.Bounds(), pm.Bounds())

	already := image.NewPaletted(image.Rect(0, 0, 1, 1), palette.Greyscale())
	assert.True(t, already == Paletted(already, nil))
}

func TestEncode(t *testing.T) {
	img := Sprite(sprite(t), palette.Greyscale(), &Options{Scale: 2})

	var b bytes.Buffer
	require.NoError(t, Encode(&b, img, PNG, nil))
	cfg, err := png.DecodeConfig(&b)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)

	b.Reset()
	require.NoError(t, Encode(&b, img, GIF, &Options{Colors: 16}))
	g, err := gif.Decode(&b)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), g.Bounds())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".GIF")
	require.NoError(t, err)
	assert.Equal(t, GIF, f)
	assert.Equal(t, "image/gif", f.ContentType())

	_, err = ParseFormat("bmp")
	assert.Error(t, err)
}
