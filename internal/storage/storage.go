// Package storage keeps rendered report documents on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidLocation = errors.New("location outside storage directory")

type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes data as report-<id>.pdf and returns its location.
func (s *FileStore) Save(ctx context.Context, reportID string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if reportID == "" || strings.ContainsAny(reportID, `/\`) {
		return "", fmt.Errorf("invalid report id %q", reportID)
	}

	location := filepath.Join(s.dir, "report-"+reportID+".pdf")

	tmp, err := os.CreateTemp(s.dir, ".report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write report %s: %w", reportID, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", reportID, err)
	}
	if err := os.Rename(tmp.Name(), location); err != nil {
		return "", fmt.Errorf("failed to store report %s: %w", reportID, err)
	}

	return location, nil
}

// Open reads back a document previously returned by Save.
func (s *FileStore) Open(location string) ([]byte, error) {
	rel, err := filepath.Rel(s.dir, filepath.Clean(location))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, ErrInvalidLocation
	}

	return os.ReadFile(filepath.Join(s.dir, rel))
}

func (s *FileStore) Dir() string {
	return s.dir
}
