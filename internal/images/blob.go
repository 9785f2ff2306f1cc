package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore is where image bytes live. The catalog database only keeps keys
// and URLs; the backing store is local disk or S3-compatible object storage.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the public path or URL clients use to fetch the blob.
	URL(key string) string
}

// LocalStore keeps blobs under a directory served statically by the API.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore prepares the upload directory tree.
func NewLocalStore(dir string) (*LocalStore, error) {
	for _, sub := range []string{"vehicles", filepath.Join("vehicles", "thumbnails")} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &LocalStore{dir: dir, baseURL: "/" + strings.Trim(filepath.ToSlash(dir), "/")}, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/" + key
}
