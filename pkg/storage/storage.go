package storage

import (
	"context"
	"io"
)

// Store is the offsite object store used for database backup archives.
type Store interface {
	Write(ctx context.Context, key string, r io.Reader, size int64) error
	Read(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
