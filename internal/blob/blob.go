// Package blob stores uploaded files. A Store keeps bytes under a key and
// returns a durable location for them (a path or a scheme://bucket/key URI).
package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/confkeeper/internal/server/config"
)

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// Signer is implemented by stores whose objects are fetched through
// short-lived signed URLs.
type Signer interface {
	SignedURL(ctx context.Context, key string) (string, error)
}

// Open builds the store selected by cfg.UploadDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.UploadDriver {
	case config.UploadFS:
		return NewFSStore(cfg.UploadRoot)
	case config.UploadS3:
		return NewS3Store(ctx, cfg)
	case config.UploadMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown upload driver %q", cfg.UploadDriver)
}
