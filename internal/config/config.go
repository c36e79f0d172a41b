// Package config loads shipdeck configuration from ~/.shipdeck/config.yaml
// with environment overrides. A missing file yields working defaults so the
// client runs against a local backend out of the box.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all shipdeck settings.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// APIConfig configures the backend connection.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// DefaultsConfig holds user preferences applied when a flow starts.
type DefaultsConfig struct {
	LabelSize string `yaml:"label_size"` // 4x6 or letter
	Service   string `yaml:"service"`    // ground, priority or cheapest
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty logs to stderr
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000/api",
			Timeout: "30s",
		},
		Defaults: DefaultsConfig{
			LabelSize: "4x6",
			Service:   "ground",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath is ~/.shipdeck/config.yaml, overridable via SHIPDECK_CONFIG.
func DefaultPath() (string, error) {
	if p := os.Getenv("SHIPDECK_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".shipdeck", "config.yaml"), nil
}

// Load reads path (or the default location when path is empty), overlays it
// on the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file: defaults plus env.
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if u := os.Getenv("SHIPDECK_API_URL"); u != "" {
		cfg.API.BaseURL = u
	}
	return cfg, nil
}

// APITimeout parses the configured timeout, falling back to 30 seconds.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Save writes the config back to path, creating the directory as needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
