// Package prefs persists user preferences to a small YAML file. The keeper
// stores the current collection directory here so the location survives
// restarts and can be redirected to a second collection.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/deckhaven/collection-keeper/internal/port"
)

// Store implements port.Prefs backed by a viper YAML file
type Store struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// Ensure Store implements port.Prefs
var _ port.Prefs = (*Store)(nil)

// Open loads the preference file at path, creating the store empty when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read preference file: %w", err)
		}
	}

	return &Store{v: v, path: path}, nil
}

// Path returns the preference file path
func (s *Store) Path() string {
	return s.path
}

// GetString returns the stored value for key, or "" when unset
func (s *Store) GetString(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString(key)
}

// SetString stores and persists the value for key
func (s *Store) SetString(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
	return s.write()
}

// GetOrSetString returns the stored value for key, or computes, persists,
// and returns the default when the key is unset.
func (s *Store) GetOrSetString(key string, compute func() (string, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.v.IsSet(key) {
		return s.v.GetString(key), nil
	}

	value, err := compute()
	if err != nil {
		return "", err
	}

	s.v.Set(key, value)
	if err := s.write(); err != nil {
		return "", err
	}
	return value, nil
}

// write persists the current values. Callers must hold s.mu.
func (s *Store) write() error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create preference dir: %w", err)
		}
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write preference file: %w", err)
	}
	return nil
}
