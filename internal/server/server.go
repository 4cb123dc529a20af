package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/lector/internal/api"
	"github.com/jackzampolin/lector/internal/config"
	"github.com/jackzampolin/lector/internal/engines"
	"github.com/jackzampolin/lector/internal/extraction"
	"github.com/jackzampolin/lector/internal/home"
	"github.com/jackzampolin/lector/internal/server/endpoints"
	"github.com/jackzampolin/lector/internal/svcctx"
)

// Server is the main Lector HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *engines.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	handler http.Handler

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// ReadTimeout bounds reading a request including the upload (default: 30s)
	ReadTimeout time.Duration
	// WriteTimeout bounds a whole extraction round trip (default: 10m)
	WriteTimeout time.Duration
	// MaxUploadBytes caps request bodies (default: uploads.max_bytes default)
	MaxUploadBytes int64
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Home is the lector home directory; its models dir backs EasyOCR
	Home *home.Dir
	// Registry overrides the engines built from ConfigManager (used in tests)
	Registry *engines.Registry
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// warnNoEngines logs when the config leaves every engine disabled.
func warnNoEngines(logger *slog.Logger, cfg *config.Config) {
	if len(cfg.EnabledEngines()) == 0 {
		logger.Warn("no OCR engines enabled in config, extraction requests will fail")
	}
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Minute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultConfig().Uploads.MaxBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		if cfg.ConfigManager == nil {
			return nil, errors.New("either a config manager or an engine registry is required")
		}
		registry = engines.NewRegistry()
		registry.SetLogger(cfg.Logger)

		modelDir := ""
		if cfg.Home != nil {
			modelDir = cfg.Home.ModelsPath()
		}
		current := cfg.ConfigManager.Get()
		registry.Reload(current.ToEngineRegistryConfig(modelDir))
		warnNoEngines(cfg.Logger, current)

		// Watch for config changes
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToEngineRegistryConfig(modelDir))
			cfg.Logger.Info("engine registry reloaded from config", "engines", registry.List())
			warnNoEngines(cfg.Logger, c)
		})
	}

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	s.services = &svcctx.Services{
		Registry:       registry,
		Extractor:      extraction.NewExtractor(registry, cfg.Logger),
		ConfigManager:  cfg.ConfigManager,
		Logger:         cfg.Logger,
		Home:           cfg.Home,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)
	s.handler = s.withRequestID(s.withServices(mux))

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if s.registry.Len() == 0 {
		s.logger.Warn("no OCR engines enabled; extraction requests will fail until config enables one")
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr, "engines", s.registry.List())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
// In-flight extractions are given the shutdown timeout to finish.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the engine registry.
func (s *Server) Registry() *engines.Registry {
	return s.registry
}

// Handler returns the fully wrapped HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}
