package cache

import (
	"sync"
	"time"
)

// TTL is a small in-process read-through cache. Entries expire lazily on
// read; Invalidate drops a key right away after a write.
type TTL[V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time
	m   map[string]item[V]
	// gen moves on every Invalidate so loads that started earlier are dropped
	gen map[string]uint64
}

type item[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration) *TTL[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &TTL[V]{
		ttl: ttl,
		now: time.Now,
		m:   make(map[string]item[V]),
		gen: make(map[string]uint64),
	}
}

func (c *TTL[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.RLock()
	it, ok := c.m[key]
	c.mu.RUnlock()

	if !ok {
		return zero, false
	}

	if c.now().After(it.exp) {
		c.Invalidate(key)
		return zero, false
	}

	return it.val, true
}

func (c *TTL[V]) Set(key string, val V) {
	c.mu.Lock()
	c.m[key] = item[V]{val: val, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.gen[key]++
	c.mu.Unlock()
}

// GetOrLoad returns the cached value or stores what load returns. Load
// errors are not cached, and neither is a value whose load overlapped an
// Invalidate of the same key.
func (c *TTL[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.RLock()
	startGen := c.gen[key]
	c.mu.RUnlock()

	v, err := load()
	if err != nil {
		return v, err
	}

	c.mu.Lock()
	if c.gen[key] == startGen {
		c.m[key] = item[V]{val: v, exp: c.now().Add(c.ttl)}
	}
	c.mu.Unlock()

	return v, nil
}
