package engines

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the OCR engines offered to users.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
	logger  *slog.Logger
}

// NewRegistry creates a new empty engine registry.
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[string]Engine),
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers an engine under its name.
func (r *Registry) Register(engine Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[engine.Name()] = engine
	if r.logger != nil {
		r.logger.Info("registered OCR engine", "name", engine.Name())
	}
}

// Unregister removes an engine by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engines[name]; !ok {
		return
	}
	delete(r.engines, name)
	if r.logger != nil {
		r.logger.Info("unregistered OCR engine", "name", name)
	}
}

// Get returns an engine by name.
func (r *Registry) Get(name string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engine, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEngineNotFound, name)
	}
	return engine, nil
}

// List returns all registered engine names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if an engine is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.engines[name]
	return ok
}

// Len returns the number of registered engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// RegistryConfig defines the engines to instantiate from config.
// This mirrors the config.Config engine section.
type RegistryConfig struct {
	EasyOCR   EasyOCRConfig
	Tesseract TesseractConfig
}

// NewRegistryFromConfig creates a registry with engines based on configuration.
// Only enabled engines are registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.Reload(cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Disabled engines are unregistered, enabled engines are (re)created when their
// settings changed.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]Engine)
	if cfg.EasyOCR.Enabled {
		if existing, ok := r.engines[EasyOCRName].(*EasyOCREngine); ok && !existing.needsUpdate(cfg.EasyOCR) {
			want[EasyOCRName] = existing
		} else {
			want[EasyOCRName] = NewEasyOCREngineFromConfig(cfg.EasyOCR)
		}
	}
	if cfg.Tesseract.Enabled {
		if existing, ok := r.engines[TesseractName].(*TesseractEngine); ok && !existing.needsUpdate(cfg.Tesseract) {
			want[TesseractName] = existing
		} else {
			want[TesseractName] = NewTesseractEngineFromConfig(cfg.Tesseract)
		}
	}

	for name := range r.engines {
		if _, ok := want[name]; !ok {
			delete(r.engines, name)
			if r.logger != nil {
				r.logger.Info("unregistered OCR engine", "name", name)
			}
		}
	}
	for name, engine := range want {
		existing, hasExisting := r.engines[name]
		if hasExisting && existing == engine {
			continue
		}
		r.engines[name] = engine
		if r.logger != nil {
			if hasExisting {
				r.logger.Info("updated OCR engine", "name", name)
			} else {
				r.logger.Info("registered OCR engine", "name", name)
			}
		}
	}
}
