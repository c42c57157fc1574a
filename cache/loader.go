package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader reads through a Cache, running fetch on misses. Concurrent misses
// of one key share a single fetch.
type Loader struct {
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger receiving cache failures.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(ld *Loader) {
		ld.logger = l
	}
}

// NewLoader returns a loader storing fetched values for ttl.
func NewLoader(c Cache, ttl time.Duration, opts ...LoaderOption) *Loader {
	ld := &Loader{cache: c, ttl: ttl, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load returns the cached value of key, or the result of fetch. A cache that
// fails to read or write is logged and bypassed; only fetch errors are
// returned.
func (ld *Loader) Load(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	v, err := ld.cache.Get(ctx, key)
	switch {
	case err != nil:
		ld.logger.Warn("cache: get failed", "key", key, "error", err)
	case v != nil:
		ld.logger.Debug("cache: hit", "key", key)
		return v, nil
	}
	res, err, shared := ld.group.Do(key, func() (any, error) {
		// A fetch of key may have completed since the first lookup.
		if v, err := ld.cache.Get(ctx, key); err == nil && v != nil {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := ld.cache.Set(ctx, key, v, ld.ttl); err != nil {
			ld.logger.Warn("cache: set failed", "key", key, "error", err)
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	ld.logger.Debug("cache: miss", "key", key, "shared", shared)
	return res.([]byte), nil
}

// Invalidate removes every cached value under prefix.
func (ld *Loader) Invalidate(ctx context.Context, prefix string) error {
	return ld.cache.DeletePrefix(ctx, prefix)
}
