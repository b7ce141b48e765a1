// Package cache provides a generic Cache interface with in-memory and Redis
// implementations. The dispatch engine stores rendered responses in it, and the
// route snapshot store uses it as a front cache.
//
// # Interface
//
// [Cache] is generic over the value type. TTL semantics for Set:
//   - Positive duration: item expires after this duration
//   - Zero: use the cache's configured default TTL (1 hour by default)
//   - Negative: item never expires
//
// Both backends also implement [Tagger], which groups keys under a tag so a
// whole group can be invalidated at once:
//
//	_ = c.Set(ctx, "/blog/1", page, time.Minute)
//	_ = c.Tag(ctx, "blog", "/blog/1")
//	_ = c.InvalidateTag(ctx, "blog") // drops /blog/1
//
// # In-Memory Cache
//
// [NewMemory] keeps entries in a map with an LRU list and a janitor goroutine
// that removes expired entries:
//
//	c := cache.NewMemory[[]byte](
//	    cache.WithDefaultTTL(5 * time.Minute),
//	    cache.WithMaxEntries(10000),
//	)
//	defer c.Close()
//
// # Redis Cache
//
// [NewRedis] takes a client from pkg/redis. Values go through a [Marshaler];
// nil means [JSONMarshaler], [BytesMarshaler] stores pre-encoded bytes
// untouched. Tags are Redis sets stored under "{prefix}:tag:{tag}".
//
// # Filling misses
//
// A [Loader] computes a missing value once per key across concurrent callers
// using singleflight. The route cache's Tiered store keeps one per front
// cache so a burst of requests for a cold route reads the database once.
package cache
