package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/lector/internal/engines"
)

// Extract decodes upload and runs engine over it with the selected languages.
//
// Errors and panics from decoding or the engine are captured in the returned
// Result and never propagated. There is no retry and no caching.
func Extract(ctx context.Context, engine engines.Engine, upload *Upload, sel Selection) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = failed(FailureInternal, fmt.Errorf("%v", r))
		}
	}()

	if engine == nil {
		return failed(FailureEngine, fmt.Errorf("%w: %s", engines.ErrEngineNotFound, sel.Engine))
	}

	img, err := upload.Decode()
	if err != nil {
		return failed(FailureDecode, err)
	}

	text, err := engine.Extract(ctx, img, sel.Languages)
	if err != nil {
		return failed(FailureEngine, err)
	}
	return succeeded(text)
}

// Extractor resolves engines from a registry and runs extractions with logging.
type Extractor struct {
	registry *engines.Registry
	logger   *slog.Logger
}

// NewExtractor creates an Extractor. A nil logger uses slog.Default().
func NewExtractor(registry *engines.Registry, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{registry: registry, logger: logger}
}

// Run extracts text from upload using the engine named in sel.
func (x *Extractor) Run(ctx context.Context, upload *Upload, sel Selection) Result {
	start := time.Now()
	logger := x.logger.With(
		"engine", sel.Engine,
		"languages", sel.Languages,
		"file", upload.Filename,
		"bytes", len(upload.Data),
	)
	if id := RequestIDFrom(ctx); id != "" {
		logger = logger.With("request_id", id)
	}

	engine, err := x.registry.Get(sel.Engine)
	if err != nil {
		result := failed(FailureEngine, err)
		logger.Warn("extraction failed", "kind", result.Failure.Kind, "error", err)
		return result
	}

	result := Extract(ctx, engine, upload, sel)
	if !result.OK() {
		logger.Warn("extraction failed",
			"kind", result.Failure.Kind,
			"error", result.Failure.Err,
			"duration", time.Since(start),
		)
		return result
	}

	logger.Info("extraction completed",
		"characters", result.Stats.Characters,
		"words", result.Stats.Words,
		"duration", time.Since(start),
	)
	return result
}

type requestIDKey struct{}

// WithRequestID returns a context carrying a request id for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
