package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Formats lists every upload extension with a matching encoder.
var Formats = []string{"jpg", "jpeg", "png", "bmp", "tiff"}

// NewImage returns a w x h RGBA image with a dark bar across the top.
func NewImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			if y < h/5 {
				c = color.RGBA{A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// EncodeImage encodes a w x h test image in the format named by ext.
func EncodeImage(t testing.TB, ext string, w, h int) []byte {
	t.Helper()

	img := NewImage(w, h)
	var buf bytes.Buffer
	var err error
	switch ext {
	case "png":
		err = png.Encode(&buf, img)
	case "jpg", "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("no encoder for %q", ext)
	}
	if err != nil {
		t.Fatalf("failed to encode %s: %v", ext, err)
	}
	return buf.Bytes()
}
