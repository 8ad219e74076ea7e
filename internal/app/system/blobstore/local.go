package blobstore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/keepsake/internal/domain"
)

// Local stores blobs as files under a base directory. Intended for
// development and single-host deployments; the app's file server exposes
// the directory under LocalURL.
type Local struct {
	basePath string
	baseURL  string
}

// NewLocal creates a Local store, creating the base directory if needed.
func NewLocal(cfg Config) (*Local, error) {
	base := cfg.LocalPath
	if base == "" {
		base = "./uploads"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory %s: %w", base, err)
	}
	return &Local{
		basePath: base,
		baseURL:  strings.TrimSuffix(cfg.LocalURL, "/"),
	}, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(Key(key)))
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	p := l.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return &domain.IOError{Message: "blob write failed", Err: err}
	}
	f, err := os.Create(p)
	if err != nil {
		return &domain.IOError{Message: "blob write failed", Err: err}
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return &domain.IOError{Message: "blob write failed", Err: err}
	}
	return nil
}

func (l *Local) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.NotFoundError{Message: "blob not found: " + key}
		}
		return nil, &domain.IOError{Message: "blob read failed", Err: err}
	}
	return f, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		return &domain.IOError{Message: "blob delete failed", Err: err}
	}
	return nil
}

func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(l.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(l.basePath, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix == "" || strings.HasPrefix(key, Key(prefix)) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.IOError{Message: "blob list failed", Err: err}
	}
	return keys, nil
}

func (l *Local) URL(key string) string {
	return l.baseURL + "/" + Key(key)
}

// PresignPut is not supported by the local backend; clients must upload
// through the app.
func (l *Local) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "", &domain.IOError{Message: "presigned uploads are not supported by local storage"}
}
