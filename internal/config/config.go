package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Library Library `toml:"library"`
	Scanner Scanner `toml:"scanner"`
	Cache   Cache   `toml:"cache"`
	Report  Report  `toml:"report"`
	Logging Logging `toml:"logging"`
}

// Library contains audio collection configuration
type Library struct {
	SupportedFormats []string `toml:"supported_formats"`
}

// Scanner contains worker pool configuration
type Scanner struct {
	Workers int `toml:"workers"` // 0 selects one per CPU core
}

// Cache contains probe cache configuration
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Report contains report output configuration
type Report struct {
	Directory string `toml:"directory"` // default location for CSV reports
}

// Logging contains logging configuration
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Library: Library{
			SupportedFormats: []string{".flac", ".mp3", ".wav", ".m4a"},
		},
		Scanner: Scanner{
			Workers: 0,
		},
		Cache: Cache{
			Enabled: true,
			Path:    "./fermata-cache.db",
		},
		Report: Report{
			Directory: "./reports",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// LoadConfig loads configuration from a TOML file, creating the file
// with defaults when it does not exist yet.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# Fermata Configuration
# Settings for duplicate resolution and bitrate analysis runs.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Library.SupportedFormats) == 0 {
		return fmt.Errorf("at least one supported audio format must be specified")
	}
	if c.Scanner.Workers < 0 {
		return fmt.Errorf("scanner workers must not be negative")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache path cannot be empty when the cache is enabled")
	}
	if c.Report.Directory == "" {
		return fmt.Errorf("report directory cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// IsFormatSupported checks if an audio format is supported
func (c *Config) IsFormatSupported(format string) bool {
	for _, supported := range c.Library.SupportedFormats {
		if supported == format {
			return true
		}
	}
	return false
}
