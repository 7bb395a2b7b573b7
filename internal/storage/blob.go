package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileBlobStore stores blobs as files under a root directory. Put
// overwrites unconditionally; the returned location is the absolute file
// path, which doubles as the pointer-record document location.
type FileBlobStore struct {
	root string
}

// NewFileBlobStore creates the store, making the root directory if
// needed.
func NewFileBlobStore(root string) (*FileBlobStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &FileBlobStore{root: root}, nil
}

// Put writes data under key, creating intermediate directories. The
// contentType is accepted for interface compatibility; the filesystem
// backend has nowhere to record it.
func (s *FileBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// Get reads a blob back by the location Put returned.
func (s *FileBlobStore) Get(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}
