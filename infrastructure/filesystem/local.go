package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"video-toolbox/domain/asset"
)

// Local implements asset.FileStore on the local disk
type Local struct{}

// NewLocal creates a new local file store
func NewLocal() *Local {
	return &Local{}
}

// Exists returns true if the file exists
func (l *Local) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Stat returns the size and modification time of a regular file
func (l *Local) Stat(path string) (asset.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return asset.FileInfo{}, err
	}
	if info.IsDir() {
		return asset.FileInfo{}, fmt.Errorf("%s is a directory", path)
	}
	return asset.FileInfo{Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Save writes r to a new file at path, creating parent directories. A partially written
// file is left for the caller to remove.
func (l *Local) Save(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to write file: %w", err)
	}

	return n, nil
}

// Open opens a file for reading
func (l *Local) Open(path string) (io.ReadSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove deletes a file
func (l *Local) Remove(path string) error {
	return os.Remove(path)
}

// EnsureDir creates dir if it does not exist
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// Ensure Local implements asset.FileStore
var _ asset.FileStore = (*Local)(nil)
