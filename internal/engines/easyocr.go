package engines

import (
	"context"
	"strings"
)

// DefaultPython is the interpreter used to run the EasyOCR reader.
const DefaultPython = "python3"

// Detection is a single recognized region as reported by EasyOCR.
type Detection struct {
	// Box holds the region corners in image coordinates.
	Box        [][2]float64 `json:"box"`
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
}

// Reader runs EasyOCR detection and recognition over an image.
type Reader interface {
	ReadText(ctx context.Context, img *Image, languages []string) ([]Detection, error)
}

// EasyOCRConfig holds configuration for the EasyOCR engine.
type EasyOCRConfig struct {
	Enabled bool
	// Python is the interpreter with the easyocr package installed.
	Python string
	// ModelDir overrides EasyOCR's model storage directory. Empty uses EasyOCR's default.
	ModelDir string
}

// EasyOCREngine implements Engine on top of an EasyOCR Reader.
// A fresh reader bound to the requested languages is built on every call with
// GPU disabled.
type EasyOCREngine struct {
	reader Reader
	cfg    EasyOCRConfig
}

// NewEasyOCREngine creates an engine backed by the given reader.
func NewEasyOCREngine(reader Reader) *EasyOCREngine {
	return &EasyOCREngine{reader: reader}
}

// NewEasyOCREngineFromConfig creates an engine that drives EasyOCR through the
// configured Python interpreter.
func NewEasyOCREngineFromConfig(cfg EasyOCRConfig) *EasyOCREngine {
	if cfg.Python == "" {
		cfg.Python = DefaultPython
	}
	return &EasyOCREngine{
		reader: NewPythonReader(cfg.Python, cfg.ModelDir),
		cfg:    cfg,
	}
}

// Name returns the engine identifier.
func (e *EasyOCREngine) Name() string { return EasyOCRName }

// Label returns the display name.
func (e *EasyOCREngine) Label() string { return Label(EasyOCRName) }

// Extract joins the text of every detection with newlines, in reader order.
func (e *EasyOCREngine) Extract(ctx context.Context, img *Image, languages []string) (string, error) {
	detections, err := e.reader.ReadText(ctx, img, languages)
	if err != nil {
		return "", err
	}
	return JoinDetections(detections), nil
}

func (e *EasyOCREngine) needsUpdate(cfg EasyOCRConfig) bool {
	if cfg.Python == "" {
		cfg.Python = DefaultPython
	}
	return e.cfg != cfg
}

// JoinDetections concatenates detection texts with "\n" separators.
// Order is preserved; no re-sorting by position is done.
func JoinDetections(detections []Detection) string {
	texts := make([]string, len(detections))
	for i, d := range detections {
		texts[i] = d.Text
	}
	return strings.Join(texts, "\n")
}

var _ Engine = (*EasyOCREngine)(nil)
