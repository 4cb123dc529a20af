//go:build !ocr

package engines

import "context"

// libraryImageToString reports that gosseract support was not compiled in.
// Rebuild with -tags ocr (requires libtesseract) to enable it.
func libraryImageToString(_ context.Context, _ []byte) (string, error) {
	return "", ErrLibraryNotEnabled
}
