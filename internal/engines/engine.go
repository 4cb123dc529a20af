package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
)

const (
	// EasyOCRName identifies the neural, multi-language engine.
	EasyOCRName = "easyocr"
	// TesseractName identifies the classical OCR engine.
	TesseractName = "tesseract"
)

var (
	// ErrEngineNotFound is returned when a requested engine is not registered.
	ErrEngineNotFound = errors.New("OCR engine not available")

	// ErrLibraryNotEnabled is returned by the Tesseract library backend when the
	// binary was built without the "ocr" tag.
	ErrLibraryNotEnabled = errors.New("tesseract library backend not enabled; rebuild with -tags ocr")
)

// Engine extracts text from a decoded image.
// Implementations must not keep references to img after Extract returns.
type Engine interface {
	// Name returns the engine identifier (e.g., "easyocr").
	Name() string

	// Label returns the human-facing engine name (e.g., "EasyOCR").
	Label() string

	// Extract runs recognition and returns the extracted text.
	Extract(ctx context.Context, img *Image, languages []string) (string, error)
}

// Image is an uploaded image owned by a single extraction.
type Image struct {
	// Bitmap is the decoded pixel data.
	Bitmap image.Image
	// Format is the decoder name reported by image.Decode ("png", "jpeg", "bmp", "tiff").
	Format string
	// Data holds the original encoded bytes as uploaded.
	Data []byte
}

// Width returns the bitmap width in pixels.
func (img *Image) Width() int {
	return img.Bitmap.Bounds().Dx()
}

// Height returns the bitmap height in pixels.
func (img *Image) Height() int {
	return img.Bitmap.Bounds().Dy()
}

// PNG encodes the bitmap as PNG.
func (img *Image) PNG() ([]byte, error) {
	if img == nil || img.Bitmap == nil {
		return nil, errors.New("no image data")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Bitmap); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Label returns the display label for an engine name, or the name itself if unknown.
func Label(name string) string {
	switch name {
	case EasyOCRName:
		return "EasyOCR"
	case TesseractName:
		return "Tesseract"
	default:
		return name
	}
}

// Names returns the fixed set of engine names in display order.
func Names() []string {
	return []string{EasyOCRName, TesseractName}
}
