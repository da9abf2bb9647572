// Package store persists the stats document on the local filesystem.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sfedor2020/Portfolio-Scripts/internal/domain"
)

// FileStore keeps the document in a single file.
type FileStore struct {
	path string
	perm fs.FileMode
}

// NewFileStore returns a FileStore for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, perm: 0o644}
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Read returns the file content, or nil if the file does not exist.
func (s *FileStore) Read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", domain.ErrWrite, s.path, err)
	}
	return data, nil
}

// Write replaces the file with content. The content goes to a temporary
// file in the same directory first and is renamed over the target, so
// readers never observe a partial document.
func (s *FileStore) Write(content []byte) (err error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %w", domain.ErrWrite, dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary file: %w", domain.ErrWrite, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", domain.ErrWrite, tmp.Name(), err)
	}
	if err = tmp.Chmod(s.perm); err != nil {
		return fmt.Errorf("%w: failed to chmod %s: %w", domain.ErrWrite, tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: failed to sync %s: %w", domain.ErrWrite, tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %w", domain.ErrWrite, tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: failed to replace %s: %w", domain.ErrWrite, s.path, err)
	}
	return nil
}
