package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs below a directory that is served under urlPrefix.
type LocalStore struct {
	rootPath  string
	urlPrefix string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates the root directory if needed.
func NewLocalStore(rootPath, urlPrefix string) (*LocalStore, error) {
	p := filepath.Clean(rootPath)
	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}
	return &LocalStore{rootPath: p, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

// Root returns the directory blobs are written to
func (s *LocalStore) Root() string {
	return s.rootPath
}

// Put writes the content to disk and returns its URL path
func (s *LocalStore) Put(ctx context.Context, folder, ext, contentType string, r io.Reader) (string, error) {
	name := objectName(folder, ext)
	fullPath := filepath.Join(s.rootPath, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create subdirectories: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}

	return path.Join(s.urlPrefix, name), nil
}

// Delete removes the file behind ref
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	name, ok := strings.CutPrefix(ref, s.urlPrefix+"/")
	if !ok || name == "" {
		return nil
	}
	fullPath := filepath.Join(s.rootPath, filepath.FromSlash(path.Clean("/" + name)))
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	return nil
}
