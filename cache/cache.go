// Package cache provides the persisted translation cache and the storage
// backends it is saved to.
package cache

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Load when the key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// ErrConflict is returned by Store.Update when concurrent writers kept
// invalidating the read-modify-write.
var ErrConflict = errors.New("cache: too many concurrent updates")

// UpdateFunc computes the new value of a key from its current value.
// old is nil when the key does not exist.
type UpdateFunc func(old []byte) ([]byte, error)

// Store is durable key-value storage for cache blobs and preferences.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the value of key or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Update atomically replaces the value of key with fn(old).
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the store.
	Close() error
}
