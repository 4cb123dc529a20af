package engines

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed easyocr_reader.py
var readerScript string

//go:embed detections.schema.json
var detectionsSchema []byte

var compileDetectionsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("detections.schema.json", bytes.NewReader(detectionsSchema)); err != nil {
		return nil, fmt.Errorf("failed to load detections schema: %w", err)
	}
	schema, err := compiler.Compile("detections.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile detections schema: %w", err)
	}
	return schema, nil
})

// PythonReader runs EasyOCR in a Python subprocess.
// The bitmap is sent as PNG on stdin and detections come back as JSON on stdout.
type PythonReader struct {
	python   string
	modelDir string
}

// NewPythonReader creates a reader that executes the embedded EasyOCR script.
func NewPythonReader(python, modelDir string) *PythonReader {
	if python == "" {
		python = DefaultPython
	}
	return &PythonReader{python: python, modelDir: modelDir}
}

// ReadText runs detection and recognition over img with GPU disabled.
func (r *PythonReader) ReadText(ctx context.Context, img *Image, languages []string) ([]Detection, error) {
	data, err := img.PNG()
	if err != nil {
		return nil, err
	}
	langs, err := json.Marshal(languages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal languages: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.python, "-c", readerScript, string(langs), r.modelDir)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := lastLine(stderr.String()); msg != "" {
				return nil, fmt.Errorf("easyocr: %s", msg)
			}
		}
		return nil, fmt.Errorf("easyocr reader failed: %w", err)
	}

	return ParseDetections(stdout.Bytes())
}

// ParseDetections validates reader output against the detections schema and
// decodes it.
func ParseDetections(data []byte) ([]Detection, error) {
	schema, err := compileDetectionsSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode easyocr output: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("easyocr output does not match schema: %w", err)
	}

	var detections []Detection
	if err := json.Unmarshal(data, &detections); err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}
	return detections, nil
}

// lastLine returns the last non-empty line of s, trimmed.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

var _ Reader = (*PythonReader)(nil)
