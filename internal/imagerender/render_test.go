package imagerender

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePNG_Gray(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.Set(1, 1, color.RGBA{R: 255, A: 255})

	out, err := EncodePNG(src, ColorGray)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	_, isGray := img.(*image.Gray)
	assert.True(t, isGray)
}

func TestEncodePNG_RGB(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	out, err := EncodePNG(src, ColorRGB)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), out[:4])
	assert.NotEmpty(t, EncodeToBase64(out))
}
