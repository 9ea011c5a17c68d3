package store

import (
	"context"
	"time"
)

// BlobInfo describes one stored blob version.
type BlobInfo struct {
	Name       string
	UploadedAt time.Time
	Location   string
}

// BlobStore is the durable namespace the cache persists into. It is a
// plain versioned blob store, not a transactional one: the cache writes a
// new uniquely-named blob per save and reads the most recent on load.
type BlobStore interface {
	// List returns blobs whose name starts with prefix, most recent first.
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Read(ctx context.Context, location string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) (string, error)
	Delete(ctx context.Context, location string) error
}
