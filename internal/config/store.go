package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the four named settings as a JSON file in the per-user
// config directory. The token lives in this file, so it is written 0600.
type Store struct {
	path string
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("error locating user config dir: %w", err)
		}
		path = filepath.Join(dir, "tunnel-publisher", "config.json")
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the stored config. A missing file is not an error; it returns
// a zero config so the resolver can prompt for everything.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("error reading %s: %w", s.path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", s.path, err)
	}
	return &cfg, nil
}

func (s *Store) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("error writing %s: %w", s.path, err)
	}
	return nil
}
