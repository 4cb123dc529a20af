// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/lector/internal/config"
	"github.com/jackzampolin/lector/internal/engines"
	"github.com/jackzampolin/lector/internal/extraction"
	"github.com/jackzampolin/lector/internal/home"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Registry      *engines.Registry
	Extractor     *extraction.Extractor
	ConfigManager *config.Manager
	Logger        *slog.Logger
	Home          *home.Dir
	// MaxUploadBytes caps multipart request bodies.
	MaxUploadBytes int64
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// RegistryFrom extracts the engine registry from context.
func RegistryFrom(ctx context.Context) *engines.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// ExtractorFrom extracts the extraction runner from context.
func ExtractorFrom(ctx context.Context) *extraction.Extractor {
	if s := ServicesFrom(ctx); s != nil {
		return s.Extractor
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// ConfigFrom returns the current configuration, or the defaults when no
// config manager is attached.
func ConfigFrom(ctx context.Context) *config.Config {
	if m := ConfigManagerFrom(ctx); m != nil {
		return m.Get()
	}
	return config.DefaultConfig()
}

// LoggerFrom extracts the logger from context, or slog.Default when none is set.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// MaxUploadBytesFrom returns the configured upload limit, falling back to the
// default config value.
func MaxUploadBytesFrom(ctx context.Context) int64 {
	if s := ServicesFrom(ctx); s != nil && s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return config.DefaultConfig().Uploads.MaxBytes
}
