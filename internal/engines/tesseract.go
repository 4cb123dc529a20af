package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

const (
	// DefaultTesseractBinary is the tesseract executable looked up in PATH.
	DefaultTesseractBinary = "tesseract"

	// TesseractBackendCLI runs the tesseract binary.
	TesseractBackendCLI = "cli"
	// TesseractBackendLibrary links libtesseract through gosseract (-tags ocr).
	TesseractBackendLibrary = "library"
)

// TextFunc extracts text from encoded image bytes in a single call.
type TextFunc func(ctx context.Context, data []byte) (string, error)

// TesseractConfig holds configuration for the Tesseract engine.
type TesseractConfig struct {
	Enabled bool
	// Backend is "cli" (default) or "library".
	Backend string
	// Binary is the tesseract executable for the cli backend.
	Binary string
}

// TesseractEngine implements Engine with a single image-to-string call.
//
// The language selection is accepted but not forwarded: recognition always
// runs with tesseract's default language.
type TesseractEngine struct {
	imageToString TextFunc
	cfg           TesseractConfig
}

// NewTesseractEngine creates an engine backed by fn.
func NewTesseractEngine(fn TextFunc) *TesseractEngine {
	return &TesseractEngine{imageToString: fn}
}

// NewTesseractEngineFromConfig creates an engine for the configured backend.
func NewTesseractEngineFromConfig(cfg TesseractConfig) *TesseractEngine {
	cfg = normalizeTesseractConfig(cfg)

	var fn TextFunc
	switch cfg.Backend {
	case TesseractBackendLibrary:
		fn = libraryImageToString
	default:
		fn = cliImageToString(cfg.Binary)
	}
	return &TesseractEngine{imageToString: fn, cfg: cfg}
}

// Name returns the engine identifier.
func (e *TesseractEngine) Name() string { return TesseractName }

// Label returns the display name.
func (e *TesseractEngine) Label() string { return Label(TesseractName) }

// Extract passes the original image bytes to tesseract and returns its output verbatim.
func (e *TesseractEngine) Extract(ctx context.Context, img *Image, _ []string) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", errors.New("no image data")
	}
	return e.imageToString(ctx, img.Data)
}

func (e *TesseractEngine) needsUpdate(cfg TesseractConfig) bool {
	return e.cfg != normalizeTesseractConfig(cfg)
}

func normalizeTesseractConfig(cfg TesseractConfig) TesseractConfig {
	if cfg.Backend == "" {
		cfg.Backend = TesseractBackendCLI
	}
	if cfg.Binary == "" {
		cfg.Binary = DefaultTesseractBinary
	}
	return cfg
}

// cliImageToString runs `tesseract stdin stdout` with the image on stdin.
func cliImageToString(binary string) TextFunc {
	return func(ctx context.Context, data []byte) (string, error) {
		cmd := exec.CommandContext(ctx, binary, "stdin", "stdout")
		cmd.Stdin = bytes.NewReader(data)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				if msg := lastLine(stderr.String()); msg != "" {
					return "", fmt.Errorf("tesseract: %s", msg)
				}
			}
			return "", fmt.Errorf("tesseract failed: %w", err)
		}
		return stdout.String(), nil
	}
}

var _ Engine = (*TesseractEngine)(nil)
