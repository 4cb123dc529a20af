package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/lector/internal/engines"
)

// EnvPrefix is the prefix for environment overrides, e.g. LECTOR_SERVER_PORT.
const EnvPrefix = "LECTOR"

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// An empty cfgFile searches ./config.yaml and $HOME/.lector/config.yaml; a
// missing file is not an error.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	d := DefaultConfig()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("uploads.max_bytes", d.Uploads.MaxBytes)
	v.SetDefault("engines.easyocr.enabled", d.Engines.EasyOCR.Enabled)
	v.SetDefault("engines.easyocr.python", d.Engines.EasyOCR.Python)
	v.SetDefault("engines.easyocr.model_dir", d.Engines.EasyOCR.ModelDir)
	v.SetDefault("engines.tesseract.enabled", d.Engines.Tesseract.Enabled)
	v.SetDefault("engines.tesseract.backend", d.Engines.Tesseract.Backend)
	v.SetDefault("engines.tesseract.binary", d.Engines.Tesseract.Binary)
	v.SetDefault("defaults.engine", d.Defaults.Engine)
	v.SetDefault("defaults.languages", d.Defaults.Languages)

	// Environment variables with LECTOR_ prefix, nested keys joined by "_"
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.lector")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the path of the config file in use, or "" when running
// on defaults.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
// A reload that fails to parse or validate keeps the previous config.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToEngineRegistryConfig converts the config to a format suitable for engines.Registry.
// It resolves ${ENV_VAR} references and falls back to modelDir when no EasyOCR
// model directory is configured.
func (c *Config) ToEngineRegistryConfig(modelDir string) engines.RegistryConfig {
	easy := engines.EasyOCRConfig{
		Enabled:  c.Engines.EasyOCR.Enabled,
		Python:   ResolveEnvVars(c.Engines.EasyOCR.Python),
		ModelDir: ResolveEnvVars(c.Engines.EasyOCR.ModelDir),
	}
	if easy.ModelDir == "" {
		easy.ModelDir = modelDir
	}

	return engines.RegistryConfig{
		EasyOCR: easy,
		Tesseract: engines.TesseractConfig{
			Enabled: c.Engines.Tesseract.Enabled,
			Backend: c.Engines.Tesseract.Backend,
			Binary:  ResolveEnvVars(c.Engines.Tesseract.Binary),
		},
	}
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Lector configuration
# Every key can be overridden from the environment, e.g. LECTOR_SERVER_PORT=9000
# Engine paths support ${ENV_VAR} references

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
