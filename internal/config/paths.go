package config

import (
	"os"
	"path/filepath"
)

// appDirName is the per-user directory under the OS config root.
const appDirName = "opsboard"

// DefaultConfigPath returns the platform config file location,
// e.g. ~/.config/opsboard/config.toml on Linux.
func DefaultConfigPath() string {
	return filepath.Join(configRoot(), "config.toml")
}

// DefaultTokenPath returns the default token file location for the file
// storage backend.
func DefaultTokenPath() string {
	return filepath.Join(configRoot(), "tokens.json")
}

// DefaultCredentialDBPath returns the default database location for the
// sqlite storage backend.
func DefaultCredentialDBPath() string {
	return filepath.Join(configRoot(), "credentials.db")
}

// configRoot resolves the per-user config directory, falling back to a
// relative directory when the OS gives us nothing (containers with no HOME).
func configRoot() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return appDirName
	}

	return filepath.Join(base, appDirName)
}
