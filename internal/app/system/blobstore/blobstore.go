// Package blobstore abstracts where uploaded files live.
//
// Two backends are provided: S3 (AWS, or any S3-compatible service such as
// R2 or MinIO via a custom endpoint) and Local (files under a base directory,
// served by the app's file server). The rest of the app depends only on the
// Store interface.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Store is the blob storage interface used by uploads, media, and cards.
//
// Keys are "/"-separated paths relative to the store root. Put writes the
// object publicly readable; URL returns the public URL for a key without
// touching the backend.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	URL(key string) string
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// Config selects and configures a backend. Type is "local" or "s3".
type Config struct {
	Type string

	// Local backend
	LocalPath string // base directory for stored files
	LocalURL  string // URL prefix the files are served under

	// S3 backend
	S3Region    string
	S3Bucket    string
	S3Prefix    string
	S3Endpoint  string // optional custom endpoint (R2, MinIO)
	S3AccessKey string // optional static credentials
	S3SecretKey string
	S3PublicURL string // optional public base URL (CDN); default is the bucket URL
}

// New builds a Store from cfg.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case "s3":
		return NewS3(ctx, cfg)
	case "local", "":
		return NewLocal(cfg)
	default:
		return nil, fmt.Errorf("unknown blob store type %q", cfg.Type)
	}
}

// Key joins path parts into a storage key, collapsing repeated separators
// and trimming leading/trailing slashes. Empty parts are skipped.
//
//	Key("uploads", "Family/2024", "pic.webp") == "uploads/Family/2024/pic.webp"
func Key(parts ...string) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		for _, s := range strings.Split(p, "/") {
			if s != "" {
				segs = append(segs, s)
			}
		}
	}
	return strings.Join(segs, "/")
}
