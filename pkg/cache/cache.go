package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a key-value store with per-entry TTL.
//
// A positive TTL passed to Set expires the entry after that long, zero
// uses the backend's default and a negative TTL never expires.
type Cache[V any] interface {
	// Get returns ErrNotFound for missing and expired keys.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	Close() error
}

// Tagger groups keys so they can be dropped together. The response cache
// files every page under its route's cache tag.
type Tagger interface {
	Tag(ctx context.Context, tag string, keys ...string) error

	// InvalidateTag deletes every key filed under tag and forgets the tag.
	InvalidateTag(ctx context.Context, tag string) error
}

// TaggedCache is what the response cache needs. Memory and Redis both
// implement it.
type TaggedCache[V any] interface {
	Cache[V]
	Tagger
}

// Loader fills misses of one cache, running at most one fill per key at
// a time. Callers that arrive while a fill is running share its result.
type Loader[V any] struct {
	cache Cache[V]
	group singleflight.Group
}

// NewLoader returns a Loader over c.
func NewLoader[V any](c Cache[V]) *Loader[V] {
	return &Loader[V]{cache: c}
}

// Load returns the cached value for key or computes it with fill. The
// value is stored for the TTL fill returns; fill errors are returned and
// nothing is stored. A failing cache write does not fail the load.
func (l *Loader[V]) Load(ctx context.Context, key string, fill func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := l.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		val, ttl, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		_ = l.cache.Set(ctx, key, val, ttl)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
