package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Environment variable names for overrides.
const (
	EnvConfig  = "OPSBOARD_CONFIG"
	EnvBaseURL = "OPSBOARD_API_URL"
	EnvStorage = "OPSBOARD_AUTH_STORAGE"
)

// Load reads and parses a TOML config file, applies environment overrides,
// and validates the result. Unknown keys are fatal — silently ignoring a
// typo in a config file leads to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with defaults plus environment overrides. Supports the
// zero-config first run: users can log in without creating a config file.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)

		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

// applyEnvOverrides layers environment variables over the loaded config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.API.BaseURL = v
	}

	if v := os.Getenv(EnvStorage); v != "" {
		cfg.Auth.Storage = v
	}
}
