// Package config loads the application configuration from YAML, with
// defaults suitable for a single-practice deployment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// Database holds the sqlite storage settings
	Database DatabaseConfig `yaml:"database"`

	// Server holds the HTTP API settings
	Server ServerConfig `yaml:"server"`

	// Scheduling holds policy defaults applied when a purchase does not
	// specify its own
	Scheduling SchedulingConfig `yaml:"scheduling"`

	// Logging holds structured logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// DatabaseConfig configures the sqlite backend.
type DatabaseConfig struct {
	// Path is the sqlite database file location
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// ListenAddr is the host:port the API binds to
	ListenAddr string `yaml:"listen_addr"`

	// RateLimit is the sustained requests-per-second allowed per server
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the burst size for the rate limiter
	RateBurst int `yaml:"rate_burst"`
}

// SchedulingConfig holds scheduling policy defaults.
type SchedulingConfig struct {
	// DefaultFreezeDays is the freeze-day quota granted to purchases
	// created without an explicit allowance
	DefaultFreezeDays int `yaml:"default_freeze_days"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	// Level: "debug", "info", "warn", or "error"
	Level string `yaml:"level"`

	// Format: "text" or "json"
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(".nutrisched", "nutrisched.db"),
		},
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8080",
			RateLimit:  50,
			RateBurst:  100,
		},
		Scheduling: SchedulingConfig{
			DefaultFreezeDays: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file, filling unset fields from the
// defaults. A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit cannot be negative")
	}
	if c.Server.RateBurst < 0 {
		return fmt.Errorf("server.rate_burst cannot be negative")
	}
	if c.Scheduling.DefaultFreezeDays < 0 {
		return fmt.Errorf("scheduling.default_freeze_days cannot be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Logging.Format)
	}
	return nil
}

// SaveDefault writes the default configuration to a file, creating the
// parent directory if needed.
func SaveDefault(path string) error {
	config := Default()

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
