// Package config persists user settings in a single YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings are the user-tunable defaults applied before command flags.
type Settings struct {
	Model    string `yaml:"model"`
	ModelDir string `yaml:"model_dir,omitempty"`
	Language string `yaml:"language"`
	Threads  int    `yaml:"threads,omitempty"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		Model:    "small",
		Language: "auto",
	}
}

// Validate rejects out-of-range values and fills empty fields with
// defaults.
func (s *Settings) Validate() error {
	if s.Model == "" {
		s.Model = DefaultSettings().Model
	}
	if s.Language == "" {
		s.Language = DefaultSettings().Language
	}
	if s.Threads < 0 {
		return fmt.Errorf("config: threads must be >= 0, got %d", s.Threads)
	}
	return nil
}

// Store persists settings in a YAML file on disk.
type Store struct {
	path string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads settings from disk, or returns defaults when the file does
// not exist yet.
func (s *Store) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var cfg Settings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Settings{}, fmt.Errorf("decode settings %s: %w", s.path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}

	return cfg, nil
}

// Save writes settings as YAML, creating parent directories as needed.
func (s *Store) Save(cfg Settings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	return os.WriteFile(s.path, data, 0o644)
}
