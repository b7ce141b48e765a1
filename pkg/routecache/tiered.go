package routecache

import (
	"context"
	"time"

	"github.com/dmitrymomot/routeforge/pkg/cache"
)

// Tiered puts an in-process cache in front of a slower Store.
// Concurrent misses for one key hit the backing store once.
type Tiered struct {
	front  cache.Cache[[]byte]
	loader *cache.Loader[[]byte]
	back   Store
	ttl    time.Duration
}

// NewTiered wraps back with front. Entries stay in front for ttl
// (zero uses the front cache's default).
func NewTiered(front cache.Cache[[]byte], back Store, ttl time.Duration) *Tiered {
	return &Tiered{front: front, loader: cache.NewLoader(front), back: back, ttl: ttl}
}

// Load implements Store.
func (t *Tiered) Load(ctx context.Context, key string) ([]byte, error) {
	return t.loader.Load(ctx, key, func(ctx context.Context) ([]byte, time.Duration, error) {
		data, err := t.back.Load(ctx, key)
		return data, t.ttl, err
	})
}

// Save implements Store. The backing store is written first.
func (t *Tiered) Save(ctx context.Context, key string, data []byte) error {
	if err := t.back.Save(ctx, key, data); err != nil {
		return err
	}
	return t.front.Set(ctx, key, data, t.ttl)
}

// Delete implements Store.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	if err := t.front.Delete(ctx, key); err != nil {
		return err
	}
	return t.back.Delete(ctx, key)
}

// Purge clears the front cache and purges the backing store when it
// implements Purger.
func (t *Tiered) Purge(ctx context.Context) error {
	if err := t.front.Clear(ctx); err != nil {
		return err
	}
	if p, ok := t.back.(Purger); ok {
		return p.Purge(ctx)
	}
	return nil
}

// Ping checks the backing store when it supports it.
func (t *Tiered) Ping(ctx context.Context) error {
	if p, ok := t.back.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

var (
	_ Store  = (*Tiered)(nil)
	_ Purger = (*Tiered)(nil)
)
