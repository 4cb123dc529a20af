package extraction

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/jackzampolin/lector/internal/engines"
)

var (
	// ErrUnsupportedFileType is returned when the upload extension is not allowed.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrEmptyUpload is returned for uploads without content.
	ErrEmptyUpload = errors.New("uploaded file is empty")
)

// SupportedExtensions lists accepted upload extensions without the leading dot.
var SupportedExtensions = []string{"jpg", "jpeg", "png", "bmp", "tiff"}

// Upload is an uploaded image file owned by a single request.
type Upload struct {
	Filename string
	MIMEType string
	Data     []byte
}

// NewUpload validates the filename extension and wraps the file contents.
// The image is not decoded here; decode errors surface from Extract.
func NewUpload(filename, mimeType string, data []byte) (*Upload, error) {
	if !IsSupportedFile(filename) {
		return nil, fmt.Errorf("%w: %q (supported formats: %s)",
			ErrUnsupportedFileType, filename, strings.ToUpper(strings.Join(SupportedExtensions, ", ")))
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	return &Upload{Filename: filename, MIMEType: mimeType, Data: data}, nil
}

// IsSupportedFile reports whether filename carries an accepted extension.
func IsSupportedFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range SupportedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// AcceptAttribute returns the HTML file input accept list (".jpg,.jpeg,...").
func AcceptAttribute() string {
	exts := make([]string, len(SupportedExtensions))
	for i, ext := range SupportedExtensions {
		exts[i] = "." + ext
	}
	return strings.Join(exts, ",")
}

// Decode decodes the uploaded bytes into a bitmap.
func (u *Upload) Decode() (*engines.Image, error) {
	bitmap, format, err := image.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file %q: %w", u.Filename, err)
	}
	return &engines.Image{Bitmap: bitmap, Format: format, Data: u.Data}, nil
}

// Preview returns the decoded image as a PNG data URI for display.
func (u *Upload) Preview() (string, error) {
	img, err := u.Decode()
	if err != nil {
		return "", err
	}
	data, err := img.PNG()
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
