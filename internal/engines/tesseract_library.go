//go:build ocr

package engines

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// libraryImageToString recognizes data with an in-process gosseract client.
func libraryImageToString(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return text, nil
}
