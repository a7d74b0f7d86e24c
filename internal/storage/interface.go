package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Retrieve when no snapshot exists under a name
var ErrNotFound = errors.New("snapshot not found")

// StorageInterface archives JSON snapshots of search results and alert batches
type StorageInterface interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}
