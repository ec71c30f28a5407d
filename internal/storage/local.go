package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// Compile-time check that LocalStore implements Store.
var _ Store = (*LocalStore)(nil)

// LocalStore implements Store on local disk, one file per key.
// Writes go to a temporary file that is renamed over the target, so a
// crash never leaves a half-written value behind.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a new LocalStore instance.
// If dir is empty, a "jobfeed" directory under os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "jobfeed")
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	return &LocalStore{dir: dir}, nil
}

// Dir returns the directory holding the values.
func (s *LocalStore) Dir() string {
	return s.dir
}

// path maps a key to a file name; keys may hold any characters.
func (s *LocalStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".val")
}

// Get reads the file for key.
func (s *LocalStore) Get(ctx context.Context, key string) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.path(key)) // #nosec G304 - path is derived from an escaped key
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read value: %w", err)
	}
	return string(data), nil
}

// Set writes value to a temporary file and renames it into place.
func (s *LocalStore) Set(ctx context.Context, key, value string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	f, err := os.CreateTemp(s.dir, ".tmp_*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := f.Name()
	if _, err := f.WriteString(value); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace value: %w", err)
	}
	return nil
}

// Remove deletes the file for key, ignoring missing files.
func (s *LocalStore) Remove(ctx context.Context, key string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove value: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *LocalStore) Close() error { return nil }
