// Package storage holds uploaded documents. Rows in the resumes table point
// at objects here via their storage key.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nmoreno/careerhub/internal/config"
)

var ErrObjectNotFound = errors.New("storage object not found")

// Storage is the document store interface. The analysis pipeline only reads;
// the resume endpoints write and delete.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Fetch(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// New constructs the configured storage backend.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3Storage(ctx, cfg)
	case "local":
		return NewLocalStorage(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q: must be one of s3, local", cfg.Backend)
	}
}
