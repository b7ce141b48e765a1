package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a TaggedCache on a shared Redis deployment, so every routeforge
// instance sees the same cached pages and purges.
type Redis[V any] struct {
	client redis.UniversalClient
	codec  Marshaler[V]
	cfg    *redisConfig
}

// NewRedis returns a Redis cache using a client from pkg/redis.Open.
// A nil Marshaler means JSONMarshaler.
//
//	pages := cache.NewRedis[routeforge.CachedResponse](client, nil,
//	    cache.WithPrefix("routeforge"),
//	    cache.WithRedisDefaultTTL(5*time.Minute),
//	)
func NewRedis[V any](client redis.UniversalClient, m Marshaler[V], opts ...RedisOption) *Redis[V] {
	if m == nil {
		m = JSONMarshaler[V]{}
	}
	return &Redis[V]{client: client, codec: m, cfg: newRedisConfig(opts)}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return zero, ErrNotFound
	case err != nil:
		return zero, err
	}
	return r.codec.Unmarshal(data)
}

// Set stores value. Redis keeps keys with a zero expiration forever, which
// is how a negative ttl is passed on.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Marshal(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.cfg.defaultTTL
	}
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Unlink(ctx, r.key(key)).Err()
}

func (r *Redis[V]) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	return n > 0, err
}

// Clear removes the prefix's keys with SCAN, or the whole database with
// FLUSHDB when no prefix is configured.
func (r *Redis[V]) Clear(ctx context.Context) error {
	if r.cfg.prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}

	batch := make([]string, 0, r.cfg.scanCount)
	iter := r.client.Scan(ctx, 0, r.cfg.prefix+":*", r.cfg.scanCount).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) == r.cfg.scanCount {
			if err := r.client.Unlink(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Unlink(ctx, batch...).Err()
	}
	return nil
}

// Tag adds keys to the set "{prefix}:tag:{tag}". Keys are not checked for
// existence; InvalidateTag tolerates members that already expired.
func (r *Redis[V]) Tag(ctx context.Context, tag string, keys ...string) error {
	if tag == "" || len(keys) == 0 {
		return nil
	}
	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = r.key(k)
	}
	return r.client.SAdd(ctx, r.tagKey(tag), members...).Err()
}

// InvalidateTag unlinks the tag's members together with the tag set.
func (r *Redis[V]) InvalidateTag(ctx context.Context, tag string) error {
	set := r.tagKey(tag)
	members, err := r.client.SMembers(ctx, set).Result()
	if err != nil {
		return err
	}
	return r.client.Unlink(ctx, append(members, set)...).Err()
}

// Close does nothing; pkg/redis.Shutdown owns the client.
func (r *Redis[V]) Close() error { return nil }

func (r *Redis[V]) key(k string) string {
	if r.cfg.prefix == "" {
		return k
	}
	return r.cfg.prefix + ":" + k
}

func (r *Redis[V]) tagKey(tag string) string { return r.key("tag:" + tag) }

var _ TaggedCache[any] = (*Redis[any])(nil)
