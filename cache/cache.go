// Package cache stores encoded hydration results so that repeated requests
// for the same association skip the join query.
package cache

import (
	"context"
	"time"
)

// Cache is the interface for caching encoded results.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// Key identifies a cached result.
type Key struct {
	Parent string // Parent entity name
	Edge   string // Collection edge name
	Format string // Document encoding
}

// String returns the string representation of the cache key.
func (k Key) String() string {
	return k.Parent + ":" + k.Edge + ":" + k.Format
}

// Prefix returns the prefix shared by every key of the parent entity.
func (k Key) Prefix() string {
	return k.Parent + ":"
}
