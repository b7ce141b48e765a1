package internal

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrymomot/routeforge/pkg/cache"
)

// CacheDescriptor describes how to cache the response of one request.
// A zero Expire uses the cache's default TTL. An empty Tag means untagged.
type CacheDescriptor struct {
	Key    string        `json:"key"`
	Tag    string        `json:"tag,omitempty"`
	Expire time.Duration `json:"expire"`
}

// ResponseCacheSlot holds the descriptor registered for the current request.
type ResponseCacheSlot struct {
	desc *CacheDescriptor
}

// SetResponseCache registers desc, replacing any earlier descriptor.
func (s *ResponseCacheSlot) SetResponseCache(desc *CacheDescriptor) {
	s.desc = desc
}

// Descriptor returns the registered descriptor, or nil.
func (s *ResponseCacheSlot) Descriptor() *CacheDescriptor {
	return s.desc
}

var _ ResponseCacheRegistrar = (*ResponseCacheSlot)(nil)

// CachedResponse is the stored form of a response.
type CachedResponse struct {
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
	Status int         `json:"status"`
}

// ResponseCache stores whole responses by descriptor key.
type ResponseCache struct {
	store cache.TaggedCache[CachedResponse]
}

// NewResponseCache wraps store. Use cache.NewMemory or cache.NewRedis.
func NewResponseCache(store cache.TaggedCache[CachedResponse]) *ResponseCache {
	return &ResponseCache{store: store}
}

// Lookup returns the cached response for desc.
// The bool is false on a miss.
func (c *ResponseCache) Lookup(ctx context.Context, desc *CacheDescriptor) (*Response, bool, error) {
	entry, err := c.store.Get(ctx, desc.Key)
	if cache.IsMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return NewResponse(entry.Status, entry.Body, entry.Header.Clone()), true, nil
}

// Store saves resp under desc. Only 200 responses are cached.
func (c *ResponseCache) Store(ctx context.Context, desc *CacheDescriptor, resp *Response) error {
	if resp.Status() != http.StatusOK {
		return nil
	}

	entry := CachedResponse{
		Status: resp.Status(),
		Header: resp.Header().Clone(),
		Body:   resp.clone().Body(),
	}
	if err := c.store.Set(ctx, desc.Key, entry, desc.Expire); err != nil {
		return err
	}
	if desc.Tag != "" {
		return c.store.Tag(ctx, desc.Tag, desc.Key)
	}
	return nil
}

// InvalidateTag drops every response cached under tag.
func (c *ResponseCache) InvalidateTag(ctx context.Context, tag string) error {
	return c.store.InvalidateTag(ctx, tag)
}

// Close releases the underlying store.
func (c *ResponseCache) Close() error {
	return c.store.Close()
}
