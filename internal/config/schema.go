package config

import (
	"fmt"
	"time"
)

// Config holds lector configuration.
// Stored at: ~/.lector/config.yaml
type Config struct {
	Server   ServerCfg   `mapstructure:"server" yaml:"server"`
	Uploads  UploadsCfg  `mapstructure:"uploads" yaml:"uploads"`
	Engines  EnginesCfg  `mapstructure:"engines" yaml:"engines"`
	Defaults DefaultsCfg `mapstructure:"defaults" yaml:"defaults"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         string `mapstructure:"port" yaml:"port"`
	ReadTimeout  string `mapstructure:"read_timeout" yaml:"read_timeout"`   // Go duration, e.g. "30s"
	WriteTimeout string `mapstructure:"write_timeout" yaml:"write_timeout"` // long enough for a slow engine call
}

// UploadsCfg limits accepted uploads.
type UploadsCfg struct {
	MaxBytes int64 `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// EnginesCfg configures the OCR engines.
type EnginesCfg struct {
	EasyOCR   EasyOCRCfg   `mapstructure:"easyocr" yaml:"easyocr"`
	Tesseract TesseractCfg `mapstructure:"tesseract" yaml:"tesseract"`
}

// EasyOCRCfg configures the EasyOCR engine.
type EasyOCRCfg struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Python   string `mapstructure:"python" yaml:"python"`       // interpreter with easyocr installed (supports ${ENV_VAR})
	ModelDir string `mapstructure:"model_dir" yaml:"model_dir"` // empty uses ~/.lector/models
}

// TesseractCfg configures the Tesseract engine.
type TesseractCfg struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Backend string `mapstructure:"backend" yaml:"backend"` // "cli" or "library"
	Binary  string `mapstructure:"binary" yaml:"binary"`   // supports ${ENV_VAR}
}

// DefaultsCfg specifies the initial form selections.
type DefaultsCfg struct {
	Engine    string   `mapstructure:"engine" yaml:"engine"`
	Languages []string `mapstructure:"languages" yaml:"languages"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:         "127.0.0.1",
			Port:         "8080",
			ReadTimeout:  "30s",
			WriteTimeout: "10m",
		},
		Uploads: UploadsCfg{
			MaxBytes: 200 << 20,
		},
		Engines: EnginesCfg{
			EasyOCR: EasyOCRCfg{
				Enabled: true,
				Python:  "python3",
			},
			Tesseract: TesseractCfg{
				Enabled: true,
				Backend: "cli",
				Binary:  "tesseract",
			},
		},
		Defaults: DefaultsCfg{
			Engine:    "easyocr",
			Languages: []string{"en"},
		},
	}
}

// Timeouts parses the server read and write timeouts.
func (s ServerCfg) Timeouts() (read, write time.Duration, err error) {
	read, err = time.ParseDuration(s.ReadTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid server.read_timeout %q: %w", s.ReadTimeout, err)
	}
	write, err = time.ParseDuration(s.WriteTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid server.write_timeout %q: %w", s.WriteTimeout, err)
	}
	return read, write, nil
}

// Validate checks values that cannot be fixed up with a default.
func (c *Config) Validate() error {
	if _, _, err := c.Server.Timeouts(); err != nil {
		return err
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads.max_bytes must be positive, got %d", c.Uploads.MaxBytes)
	}
	switch c.Engines.Tesseract.Backend {
	case "", "cli", "library":
	default:
		return fmt.Errorf("engines.tesseract.backend must be \"cli\" or \"library\", got %q", c.Engines.Tesseract.Backend)
	}
	return nil
}

// EnabledEngines returns the names of enabled engines.
func (c *Config) EnabledEngines() []string {
	var names []string
	if c.Engines.EasyOCR.Enabled {
		names = append(names, "easyocr")
	}
	if c.Engines.Tesseract.Enabled {
		names = append(names, "tesseract")
	}
	return names
}
