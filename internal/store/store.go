package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no value is stored under a key.
	ErrNotFound = errors.New("no value stored for key")
)

// Store is a small string key/value store for dashboard preferences.
// Values are opaque; callers serialize their own state.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Close() error
}
