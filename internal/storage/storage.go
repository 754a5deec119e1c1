// Package storage holds the object stores that back media attachments.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore persists the binary content of media attachments.
type ObjectStore interface {
	// Put stores size bytes read from r under key and returns the public URL.
	// Storing the same key twice overwrites the object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backend is reachable and configured.
	Ping(ctx context.Context) error
}
