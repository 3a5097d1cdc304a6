package fetch

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// Store is a directory of cached files keyed by name. Entries are written
// through a temp file and renamed into place, so readers never observe a
// partial file.
type Store struct {
	dir string
}

// NewStore creates the store directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where key is stored. The file may not exist.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Has reports whether key is cached as a non-empty file.
func (s *Store) Has(key string) bool {
	return fileExists(s.Path(key))
}

// HasURL reports whether the file rawURL downloads to is cached.
func (s *Store) HasURL(rawURL string) bool {
	key, err := KeyForURL(rawURL)
	if err != nil {
		return false
	}
	return s.Has(key)
}

// Put writes r under key atomically and returns the final path.
func (s *Store) Put(key string, r io.Reader) (string, error) {
	dest := s.Path(key)

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmp.Close()
		if cleanupNeeded {
			os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return dest, nil
}

// KeyForURL returns the cache key of rawURL: its last path segment.
func KeyForURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	key := path.Base(u.Path)
	if key == "" || key == "." || key == "/" || key == ".." {
		return "", fmt.Errorf("URL %q has no file name", rawURL)
	}
	return key, nil
}

// fileExists checks if a file exists and is not empty
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
