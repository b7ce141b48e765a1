package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time           // zero never expires
	tags      map[string]struct{} // tags this key was filed under
}

func (e *memoryEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process TaggedCache. Entries expire by TTL and, when
// WithMaxEntries is set, the least recently used entry makes room for a
// new one. Each entry remembers its tags, so a removed entry also leaves
// its tag groups and tag sets never outgrow the live keys.
type Memory[V any] struct {
	mu      sync.Mutex
	cfg     *memoryConfig
	items   map[string]*list.Element // values are *memoryEntry[V]
	lru     *list.List               // front is most recently used
	tags    map[string]map[string]struct{}
	onEvict func(key string, value V)
	done    chan struct{}
	closed  bool
}

// NewMemory returns a Memory cache. Close it to stop the janitor.
//
//	pages := cache.NewMemory[routeforge.CachedResponse](
//	    cache.WithDefaultTTL(5*time.Minute),
//	    cache.WithMaxEntries(10_000),
//	)
//	defer pages.Close()
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	m := &Memory[V]{
		cfg:   newMemoryConfig(opts),
		items: make(map[string]*list.Element),
		lru:   list.New(),
		tags:  make(map[string]map[string]struct{}),
		done:  make(chan struct{}),
	}
	if m.cfg.cleanupInterval > 0 {
		go m.janitor(m.cfg.cleanupInterval)
	}
	return m
}

// SetEvictCallback registers fn to run for every entry that leaves the
// cache, whatever the reason. fn runs with the cache locked and must not
// call back into it.
func (m *Memory[V]) SetEvictCallback(fn func(key string, value V)) {
	m.mu.Lock()
	m.onEvict = fn
	m.mu.Unlock()
}

// Get returns the live value for key and marks it recently used.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key, time.Now())
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	m.lru.MoveToFront(m.items[key])
	return e.value, nil
}

// Set stores value. A zero ttl uses the default TTL; a negative one
// never expires. Replacing a value keeps the key's tags.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.cfg.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if elem, ok := m.items[key]; ok {
		e := elem.Value.(*memoryEntry[V])
		e.value, e.expiresAt = value, expiresAt
		m.lru.MoveToFront(elem)
		return nil
	}

	if m.cfg.maxEntries > 0 && len(m.items) >= m.cfg.maxEntries {
		if oldest := m.lru.Back(); oldest != nil {
			m.remove(oldest)
		}
	}

	m.items[key] = m.lru.PushFront(&memoryEntry[V]{key: key, value: value, expiresAt: expiresAt})
	return nil
}

// Delete removes key. Missing keys are not an error.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if elem, ok := m.items[key]; ok {
		m.remove(elem)
	}
	return nil
}

// Has reports whether key holds a live value. It does not touch LRU order.
func (m *Memory[V]) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.live(key, time.Now())
	return ok, nil
}

// Clear drops every entry and tag.
func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.onEvict != nil {
		for elem := m.lru.Front(); elem != nil; elem = elem.Next() {
			e := elem.Value.(*memoryEntry[V])
			m.onEvict(e.key, e.value)
		}
	}
	m.items = make(map[string]*list.Element)
	m.tags = make(map[string]map[string]struct{})
	m.lru.Init()
	return nil
}

// Tag files the stored keys under tag. Keys not in the cache are skipped.
func (m *Memory[V]) Tag(_ context.Context, tag string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if tag == "" {
		return nil
	}

	for _, k := range keys {
		elem, ok := m.items[k]
		if !ok {
			continue
		}
		e := elem.Value.(*memoryEntry[V])
		if e.tags == nil {
			e.tags = make(map[string]struct{}, 1)
		}
		e.tags[tag] = struct{}{}

		group, ok := m.tags[tag]
		if !ok {
			group = make(map[string]struct{})
			m.tags[tag] = group
		}
		group[k] = struct{}{}
	}
	return nil
}

// InvalidateTag removes every entry filed under tag.
func (m *Memory[V]) InvalidateTag(_ context.Context, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	for k := range m.tags[tag] {
		if elem, ok := m.items[k]; ok {
			m.remove(elem)
		}
	}
	delete(m.tags, tag)
	return nil
}

// Len returns the number of stored entries, expired ones included until
// the janitor or a read removes them.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the janitor. Later writes fail with ErrClosed. Close is
// idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// live returns the entry for key, removing it if it has expired.
// Caller holds mu.
func (m *Memory[V]) live(key string, now time.Time) (*memoryEntry[V], bool) {
	elem, ok := m.items[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*memoryEntry[V])
	if e.expired(now) {
		m.remove(elem)
		return nil, false
	}
	return e, true
}

// remove unlinks elem from the index, the LRU list and its tag groups.
// Caller holds mu.
func (m *Memory[V]) remove(elem *list.Element) {
	e := m.lru.Remove(elem).(*memoryEntry[V])
	delete(m.items, e.key)

	for tag := range e.tags {
		if group := m.tags[tag]; group != nil {
			delete(group, e.key)
			if len(group) == 0 {
				delete(m.tags, tag)
			}
		}
	}

	if m.onEvict != nil {
		m.onEvict(e.key, e.value)
	}
}

func (m *Memory[V]) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

// sweep removes expired entries, oldest first.
func (m *Memory[V]) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for elem := m.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry[V]).expired(now) {
			m.remove(elem)
		}
		elem = prev
	}
}

var _ TaggedCache[any] = (*Memory[any])(nil)
