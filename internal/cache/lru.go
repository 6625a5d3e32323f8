// Package cache provides a fixed-capacity LRU cache and a persistent variant
// that mirrors its contents into a durable key-value store.
package cache

import (
	"container/list"
	"sync"
)

// entryOverhead approximates the list element, map bucket and interface
// headers spent per entry.
const entryOverhead = 64

// fallbackSize is charged for values whose size cannot be guessed cheaply.
const fallbackSize = 64

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a fixed-capacity cache that evicts the least recently used entry
// when a new key is inserted at capacity. Get and Set promote the touched
// key to most recently used. It is safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[K]*list.Element
	onEvict  func(K, V)
}

// NewLRU creates an LRU holding at most capacity entries. Capacities below
// one are raised to one.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

// OnEvict registers fn to be called once for every capacity eviction.
// Explicit Delete and Clear do not trigger it. fn runs with the cache lock
// held and must not call back into the cache.
func (c *LRU[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Set inserts or updates key. Inserting a new key into a full cache evicts
// exactly one entry, the least recently used, before the insert.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.ll.MoveToFront(el)
		return
	}
	if c.ll.Len() >= c.capacity {
		c.evictOldest()
	}
	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value})
}

// Has reports whether key is cached without touching its recency.
func (c *LRU[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Delete removes key and reports whether it was present.
func (c *LRU[K, V]) Delete(key K) bool {
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

// Clear drops every entry.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, c.ll.Len())
	for el := c.ll.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

// Entries calls fn for every entry from least to most recently used, which
// is the order that reproduces the recency list when replayed through Set.
func (c *LRU[K, V]) Entries(fn func(K, V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.ll.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry[K, V])
		fn(e.key, e.value)
	}
}

// MemoryUsage returns a rough byte estimate of the cached keys and values.
func (c *LRU[K, V]) MemoryUsage() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for el := c.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[K, V])
		total += sizeOf(e.key) + sizeOf(e.value) + entryOverhead
	}
	return total
}

func (c *LRU[K, V]) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	e := el.Value.(*entry[K, V])
	c.ll.Remove(el)
	delete(c.items, e.key)
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}

func sizeOf(v any) int64 {
	switch t := v.(type) {
	case string:
		return int64(len(t))
	case []byte:
		return int64(len(t))
	case []string:
		var n int64
		for _, s := range t {
			n += int64(len(s)) + 16
		}
		return n
	case bool, int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int, int64, uint, uint64, uintptr, float64:
		return 8
	case interface{ Size() int64 }:
		return t.Size()
	default:
		return fallbackSize
	}
}
