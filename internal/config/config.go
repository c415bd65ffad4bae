// Package config implements TOML configuration loading and validation for
// opsboard-go. Overrides layer as defaults -> config file -> environment,
// with CLI flags applied last by the command layer.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Storage backends for credentials.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api"`
	Auth    AuthConfig    `toml:"auth"`
	Logging LoggingConfig `toml:"logging"`
}

// APIConfig controls how the client reaches the Opsboard API.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// AuthConfig controls where credentials are persisted. Storage selects the
// backend ("file" or "sqlite"); Path overrides the default location of the
// token file or database.
type AuthConfig struct {
	Storage string `toml:"storage"`
	Path    string `toml:"path"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default values applied before the config file is read.
const (
	defaultBaseURL = "https://api.opsboard.io/v1"
	defaultTimeout = "30s"
	defaultLevel   = "info"
)

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultTimeout,
		},
		Auth: AuthConfig{
			Storage: StorageFile,
		},
		Logging: LoggingConfig{
			Level: defaultLevel,
		},
	}
}

// Validate checks a Config for values that would fail later in confusing
// ways: unparseable URLs, unknown storage backends, bad durations.
func Validate(cfg *Config) error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", cfg.API.BaseURL)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme %q must be http or https", u.Scheme)
	}

	if _, err := time.ParseDuration(cfg.API.Timeout); err != nil {
		return fmt.Errorf("api.timeout %q is not a duration: %w", cfg.API.Timeout, err)
	}

	switch cfg.Auth.Storage {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("auth.storage %q must be %q or %q", cfg.Auth.Storage, StorageFile, StorageSQLite)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", cfg.Logging.Level)
	}

	return nil
}

// Timeout returns the parsed API timeout. Call after Validate.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(defaultTimeout)
	}

	return d
}
