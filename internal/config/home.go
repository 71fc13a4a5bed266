package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the everything home directory.
const HomeEnv = "EVERYTHING_HOME"

// GetEverythingHome returns the everything home directory
// Priority order:
//  1. EVERYTHING_HOME environment variable (if set)
//  2. ~/.everything
//
// The directory is created if it doesn't exist
func GetEverythingHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".everything")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create everything home directory: %w", err)
	}
	return home, nil
}

// GetConfigPath returns $EVERYTHING_HOME/config.yaml
func GetConfigPath() (string, error) {
	home, err := GetEverythingHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.yaml"), nil
}

// GetDBPath returns the default catalog database path: $EVERYTHING_HOME/catalog.db
func GetDBPath() (string, error) {
	home, err := GetEverythingHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "catalog.db"), nil
}

// ResolvePath makes a relative config path absolute against the everything home.
// Absolute paths and ":memory:" are returned unchanged.
func ResolvePath(p string) (string, error) {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p, nil
	}
	home, err := GetEverythingHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, p), nil
}
