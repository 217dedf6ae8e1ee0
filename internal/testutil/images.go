package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// RGBA returns a w×h image filled with c
func RGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// PNG encodes a solid NRGBA image, alpha included
func PNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, RGBA(w, h, c)))
	return buf.Bytes()
}

// GrayPNG encodes a single-channel image
func GrayPNG(t *testing.T, w, h int, v uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// PalettedGIF encodes a palette image using the Plan 9 palette
func PalettedGIF(t *testing.T, w, h int, index uint8) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
	for i := range img.Pix {
		img.Pix[i] = index
	}
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

// JPEG encodes a solid opaque image
func JPEG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	c.A = 255
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, RGBA(w, h, c), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}
