package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	homeDirName    = ".storekit"
	configFileName = "config.yaml"
	cacheDirName   = "cache"
	logFileName    = "storekit.log"

	// ProjectFileName is the per-directory overlay picked up by the CLI.
	ProjectFileName = ".storekit.yaml"
	// EnvFileName is the dotenv file picked up by the CLI.
	EnvFileName = ".env"
)

// Dir returns the storekit home directory: $STOREKIT_HOME or ~/.storekit.
func Dir() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(userHome, homeDirName), nil
}

// DefaultConfigPath returns the main config file location.
func DefaultConfigPath() (string, error) {
	return under(configFileName)
}

// CacheDir returns the default cache directory.
func CacheDir() (string, error) {
	return under(cacheDirName)
}

// DefaultLogPath returns where file logging writes when no path is set.
func DefaultLogPath() (string, error) {
	return under(logFileName)
}

// EnsureDir creates the home directory with owner-only permissions.
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if mkErr := os.MkdirAll(dir, 0o700); mkErr != nil {
		return "", fmt.Errorf("creating %s: %w", dir, mkErr)
	}
	return dir, nil
}

func under(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
