// Package config loads hived settings from config.yaml.
//
// Settings are optional: every field has a working default, and a
// missing config file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	// Addr is the listen address of the HTTP API server.
	Addr string `yaml:"addr"`

	// IndexPath is the location of the SQLite search index. Empty means
	// a hive.db file inside the config directory; ":memory:" gives a
	// throwaway index.
	IndexPath string `yaml:"index_path"`

	// Author is the name stamped on plan comments created without an
	// explicit author.
	Author string `yaml:"author"`

	// PollIntervalSeconds is the cache refresh cadence for clients.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

// Defaults applied to zero-valued settings.
const (
	DefaultAddr         = "127.0.0.1:4820"
	DefaultAuthor       = "You"
	DefaultPollInterval = 5
)

// ConfigDir returns ~/.config/hived/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hived"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml
// if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# hived configuration
# Run: hived --help

# Listen address of the HTTP API.
# addr: 127.0.0.1:4820

# Location of the SQLite search index. Use ":memory:" for a throwaway
# index that is rebuilt on every start.
# index_path: ~/.config/hived/hive.db

# Author name stamped on plan comments.
# author: You

# Cache refresh cadence for polling clients, in seconds.
# poll_interval_seconds: 5
`

// Load reads settings using the documented lookup order. Lookup order
// (first found wins):
// 1) ~/.config/hived/config.yaml
// 2) /etc/hived/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides)
// A missing file at every location yields zero-valued Settings.
func Load() (Settings, error) {
	dir, err := ConfigDir()
	if err != nil {
		return Settings{}, err
	}

	candidates := []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(string(os.PathSeparator), "etc", "hived", "config.yaml"),
		"config.yaml",
	}
	for _, path := range candidates {
		s, err := LoadFile(path)
		if err == nil {
			return s.withDefaults(), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return Settings{}, err
		}
	}
	return Settings{}.withDefaults(), nil
}

// LoadFile reads settings from a specific config file.
func LoadFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

func (s Settings) withDefaults() Settings {
	if s.Addr == "" {
		s.Addr = DefaultAddr
	}
	if s.Author == "" {
		s.Author = DefaultAuthor
	}
	if s.PollIntervalSeconds <= 0 {
		s.PollIntervalSeconds = DefaultPollInterval
	}
	if s.IndexPath == "" {
		if dir, err := ConfigDir(); err == nil {
			s.IndexPath = filepath.Join(dir, "hive.db")
		} else {
			s.IndexPath = ":memory:"
		}
	}
	return s
}
