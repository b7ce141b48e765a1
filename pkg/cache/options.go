package cache

import "time"

// Defaults shared by both backends.
const (
	DefaultTTL             = time.Hour
	DefaultCleanupInterval = time.Minute
	DefaultScanCount       = 100
)

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	maxEntries      int // 0 = unbounded
}

func newMemoryConfig(opts []MemoryOption) *memoryConfig {
	cfg := &memoryConfig{defaultTTL: DefaultTTL, cleanupInterval: DefaultCleanupInterval}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.maxEntries < 0 {
		cfg.maxEntries = 0
	}
	return cfg
}

// WithDefaultTTL sets the lifetime of entries stored with a zero TTL.
// Response caches pass the route's expire value, so this only applies to
// routes that cache without one.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(cfg *memoryConfig) { cfg.defaultTTL = d }
}

// WithCleanupInterval sets the janitor period. Zero disables the janitor;
// expired entries are then only dropped when read.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(cfg *memoryConfig) { cfg.cleanupInterval = d }
}

// WithMaxEntries bounds the cache; the least recently used entry is evicted
// to make room. Zero means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(cfg *memoryConfig) { cfg.maxEntries = n }
}

// RedisOption configures a Redis cache.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix     string
	defaultTTL time.Duration
	scanCount  int64
}

func newRedisConfig(opts []RedisOption) *redisConfig {
	cfg := &redisConfig{defaultTTL: DefaultTTL, scanCount: DefaultScanCount}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.scanCount <= 0 {
		cfg.scanCount = DefaultScanCount
	}
	return cfg
}

// WithRedisDefaultTTL is the Redis counterpart of WithDefaultTTL.
func WithRedisDefaultTTL(d time.Duration) RedisOption {
	return func(cfg *redisConfig) { cfg.defaultTTL = d }
}

// WithPrefix namespaces keys as "{prefix}:{key}" and tag sets as
// "{prefix}:tag:{tag}". Without a prefix Clear falls back to FLUSHDB.
func WithPrefix(prefix string) RedisOption {
	return func(cfg *redisConfig) { cfg.prefix = prefix }
}

// WithScanCount sets the COUNT hint Clear passes to SCAN.
func WithScanCount(n int64) RedisOption {
	return func(cfg *redisConfig) { cfg.scanCount = n }
}
