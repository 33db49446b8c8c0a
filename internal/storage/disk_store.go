package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps images as plain files under a root directory and serves
// them through a static route, with public URLs derived from a base URL.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore prepares the root directory and returns the store.
func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create image root: %w", err)
	}
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// safePath rejects traversal outside the root.
func (s *DiskStore) safePath(path string) (string, error) {
	if path == "" || strings.Contains(path, "..") {
		return "", fmt.Errorf("invalid image path %q", path)
	}
	return filepath.Join(s.root, filepath.Clean("/"+path)), nil
}

// Upload writes the object, creating parent directories as needed.
func (s *DiskStore) Upload(_ context.Context, path string, r io.Reader) error {
	full, err := s.safePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	f, err := os.Create(full)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return f.Sync()
}

// Remove deletes the object at path.
func (s *DiskStore) Remove(_ context.Context, path string) error {
	full, err := s.safePath(path)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// PublicURL joins the base URL and the object path.
func (s *DiskStore) PublicURL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Root returns the directory the static file route should serve.
func (s *DiskStore) Root() string { return s.root }
