// Package cache implements the bounded LRU entity cache (C4): one
// instantiation per content kind (rooms, monster prototypes, object
// prototypes), each backed by a recency-ordered doubly linked list and a
// hash map, per spec.md §4.4.
package cache

import (
	"container/list"
	"sync"

	"github.com/sirupsen/logrus"
)

type entry[V any] struct {
	key   string
	value V
}

// Cache is a generic bounded LRU cache. The hash map is the single source
// of truth for presence (spec.md §3 invariant 2); the list only orders
// entries by recency for eviction.
//
// Fetch takes the cache's lock for the duration of a miss's load, which
// gives the "at-most-one-concurrent-load" guarantee spec.md §4.4 asks for
// even if this cache were ever called from more than one goroutine — the
// cooperative single-threaded loop never needs it, but the cache does not
// rely on that to stay correct.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element

	// evictable reports whether a value may be evicted right now; a room
	// containing a live player returns false here (spec.md §4.4).
	evictable func(V) bool
	// onEvict runs once per entry actually removed from the cache — the
	// room cache uses it to persist permanent items before destruction.
	onEvict func(key string, value V)

	log *logrus.Logger
}

// New returns an empty Cache with the given capacity. evictable and
// onEvict may be nil, meaning "always evictable" and "no action on
// evict" respectively. log may be nil to suppress the capacity-exceeded
// warning.
func New[V any](capacity int, evictable func(V) bool, onEvict func(string, V), log *logrus.Logger) *Cache[V] {
	return &Cache[V]{
		capacity:  capacity,
		ll:        list.New(),
		items:     make(map[string]*list.Element),
		evictable: evictable,
		onEvict:   onEvict,
		log:       log,
	}
}

// Fetch returns the cached value for key, promoting it to MRU. On a miss
// it calls load, inserts the result as MRU, and evicts from the LRU tail
// until the cache is back at or under capacity.
func (c *Cache[V]) Fetch(key string, load func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*entry[V]).value, nil
	}

	value, err := load()
	if err != nil {
		var zero V
		return zero, err
	}

	el := c.ll.PushFront(&entry[V]{key: key, value: value})
	c.items[key] = el
	c.evictToCapacity()
	return value, nil
}

// Peek returns the cached value for key without affecting recency order
// or triggering a load.
func (c *Cache[V]) Peek(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*entry[V]).value, true
}

// Replace overwrites the cached value at key in place, preserving its
// current position in the recency list so references already handed out
// stay valid (spec.md §4.4 "replace"). If key is absent, it is inserted
// as MRU and the cache is evicted back to capacity.
func (c *Cache[V]) Replace(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[V]).value = value
		return
	}
	el := c.ll.PushFront(&entry[V]{key: key, value: value})
	c.items[key] = el
	c.evictToCapacity()
}

// Reload re-loads key via load, merging with the prior cached value (if
// any) via merge before installing the result in place. merge may be nil
// to simply discard the old value; the room cache uses it to transplant
// occupants into the freshly loaded room (spec.md §4.4 "reload").
func (c *Cache[V]) Reload(key string, load func() (V, error), merge func(old, fresh V) V) (V, error) {
	fresh, err := load()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		old := el.Value.(*entry[V]).value
		if merge != nil {
			fresh = merge(old, fresh)
		}
		el.Value.(*entry[V]).value = fresh
		return fresh, nil
	}

	el := c.ll.PushFront(&entry[V]{key: key, value: fresh})
	c.items[key] = el
	c.evictToCapacity()
	return fresh, nil
}

// Remove unconditionally deletes key from the cache without running
// onEvict, and reports whether it was present.
func (c *Cache[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.ll.Remove(el)
	delete(c.items, key)
	return true
}

// Len returns the number of entries currently cached.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// evictToCapacity walks the LRU tail, evicting entries until the cache is
// at or under capacity. An entry reported non-evictable is re-promoted to
// MRU and the walk continues with the new tail; if every remaining entry
// is non-evictable, the walk stops and logs a warning rather than loop
// forever (spec.md §4.4: "capacity is temporarily exceeded").
func (c *Cache[V]) evictToCapacity() {
	if len(c.items) <= c.capacity {
		return
	}

	visited := make(map[string]bool, len(c.items))
	for len(c.items) > c.capacity {
		tail := c.ll.Back()
		if tail == nil {
			return
		}
		ent := tail.Value.(*entry[V])
		if visited[ent.key] {
			if c.log != nil {
				c.log.WithField("capacity", c.capacity).
					WithField("size", len(c.items)).
					Warn("cache: capacity exceeded by un-evictable entries")
			}
			return
		}
		if c.evictable != nil && !c.evictable(ent.value) {
			visited[ent.key] = true
			c.ll.MoveToFront(tail)
			continue
		}
		c.ll.Remove(tail)
		delete(c.items, ent.key)
		if c.onEvict != nil {
			c.onEvict(ent.key, ent.value)
		}
	}
}
