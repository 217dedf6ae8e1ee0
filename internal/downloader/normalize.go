package downloader

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	// Decoders for the formats search results commonly point at
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultSize is the edge length of every saved image
	DefaultSize = 512
	// DefaultQuality is the JPEG encoder quality
	DefaultQuality = 75
)

// Decode decodes any registered image format and reports its name
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	if img.Bounds().Empty() {
		return nil, format, fmt.Errorf("empty %s image", format)
	}
	return img, format, nil
}

// ToRGB returns an opaque copy of src. Alpha is discarded and the straight
// color values are kept, so transparent areas keep their stored color rather
// than turning black.
func ToRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			off := n.PixOffset(b.Min.X, b.Min.Y+y)
			srcRow := n.Pix[off : off+b.Dx()*4]
			dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
			for i := 0; i < len(srcRow); i += 4 {
				dstRow[i] = srcRow[i]
				dstRow[i+1] = srcRow[i+1]
				dstRow[i+2] = srcRow[i+2]
				dstRow[i+3] = 0xff
			}
		}
		return dst
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

// Resize scales src to exactly size×size with Catmull-Rom, ignoring aspect ratio
func Resize(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Normalize decodes data and returns it as a size×size baseline JPEG
func Normalize(data []byte, size, quality int) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	resized := Resize(ToRGB(img), size)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
