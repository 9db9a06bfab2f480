// Package platform resolves per-OS application directories and exposes the
// host statistics capability (memory and disk space).
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

type Runtime struct {
	OS   string
	Arch string
}

func CurrentRuntime() Runtime {
	return Runtime{
		OS:   runtime.GOOS,
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

func NormalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}

// DefaultModelDirFor returns the models directory under the app-scoped
// data dir. Exposed with explicit inputs so tests can cover each OS.
func DefaultModelDirFor(goos, homeDir, xdgDataHome string) (string, error) {
	dataDir, err := defaultDataDirFor(goos, homeDir, xdgDataHome)
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "models"), nil
}

// ResolveModelDir returns the models directory, honoring an override.
func ResolveModelDir(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	return DefaultModelDirFor(runtime.GOOS, homeDir, os.Getenv("XDG_DATA_HOME"))
}

// DefaultConfigPathFor returns the settings file location for an OS.
func DefaultConfigPathFor(goos, homeDir, xdgConfigHome string) (string, error) {
	if homeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch goos {
	case "linux":
		if xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, "hearsay", "config.yaml"), nil
		}
		return filepath.Join(homeDir, ".config", "hearsay", "config.yaml"), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "hearsay", "config.yaml"), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}

// ResolveConfigPath returns the settings file location for this host.
func ResolveConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	return DefaultConfigPathFor(runtime.GOOS, homeDir, os.Getenv("XDG_CONFIG_HOME"))
}

func defaultDataDirFor(goos, homeDir, xdgDataHome string) (string, error) {
	if homeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch goos {
	case "linux":
		if xdgDataHome != "" {
			return filepath.Join(xdgDataHome, "hearsay"), nil
		}
		return filepath.Join(homeDir, ".local", "share", "hearsay"), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "hearsay"), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}
