package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedType = errors.New("unsupported file type")
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".pdf":  {},
}

// DiskStore writes uploaded documents under a base directory and hands back
// relative paths suitable for serving.
type DiskStore struct {
	baseDir  string
	maxBytes int64
}

// NewDiskStore creates the base directory if it does not exist yet.
func NewDiskStore(baseDir string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{baseDir: baseDir, maxBytes: maxBytes}, nil
}

// Save streams the upload to disk under a generated name and returns the
// relative path. The original filename only contributes its extension.
func (s *DiskStore) Save(reader io.Reader, originalName string) (string, error) {
	ext := filepath.Ext(originalName)
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}

	name := uuid.NewString() + ext
	destPath := filepath.Join(s.baseDir, name)

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dest.Close()

	written, err := io.Copy(dest, io.LimitReader(reader, s.maxBytes+1))
	if err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(destPath)
		return "", ErrFileTooLarge
	}

	return name, nil
}

// Open returns a reader for a previously stored file.
func (s *DiskStore) Open(name string) (io.ReadCloser, error) {
	// The stored name is always a bare uuid+ext; reject anything that
	// tries to escape the base directory.
	if filepath.Base(name) != name {
		return nil, os.ErrNotExist
	}

	file, err := os.Open(filepath.Join(s.baseDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return file, nil
}
