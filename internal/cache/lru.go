package cache

import (
	"sync"
	"time"
)

// LRUCache is an in-process Cache bounded by entry count, with an optional
// time to live. Entries sit on a doubly linked ring whose front is the most
// recently used.
type LRUCache[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	index    map[string]*lruNode[T]
	ring     lruNode[T]
}

type lruNode[T any] struct {
	prev, next *lruNode[T]
	key        string
	value      T
	deadline   time.Time
}

var _ Cache[int] = (*LRUCache[int])(nil)

// NewLRUCache holds at most capacity entries (at least one). A ttl of zero
// or less keeps entries until they are evicted or invalidated.
func NewLRUCache[T any](capacity int, ttl time.Duration) *LRUCache[T] {
	c := &LRUCache[T]{
		capacity: max(capacity, 1),
		ttl:      ttl,
		now:      time.Now,
		index:    make(map[string]*lruNode[T]),
	}
	c.ring.prev, c.ring.next = &c.ring, &c.ring
	return c
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.index[key]
	if !ok || c.stale(n, c.now()) {
		if ok {
			c.drop(n)
		}
		var zero T
		return zero, false
	}
	c.unlink(n)
	c.pushFront(n)
	return n.value, true
}

func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var deadline time.Time
	if c.ttl > 0 {
		deadline = c.now().Add(c.ttl)
	}
	if n, ok := c.index[key]; ok {
		n.value, n.deadline = value, deadline
		c.unlink(n)
		c.pushFront(n)
		return
	}

	n := &lruNode[T]{key: key, value: value, deadline: deadline}
	c.index[key] = n
	c.pushFront(n)
	if len(c.index) > c.capacity {
		c.drop(c.ring.prev)
	}
}

func (c *LRUCache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.index[key]; ok {
		c.drop(n)
	}
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// CleanExpired evicts every stale entry and reports how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now, removed := c.now(), 0
	for n := c.ring.next; n != &c.ring; {
		next := n.next
		if c.stale(n, now) {
			c.drop(n)
			removed++
		}
		n = next
	}
	return removed
}

func (c *LRUCache[T]) stale(n *lruNode[T], now time.Time) bool {
	return !n.deadline.IsZero() && now.After(n.deadline)
}

func (c *LRUCache[T]) pushFront(n *lruNode[T]) {
	n.prev, n.next = &c.ring, c.ring.next
	c.ring.next.prev = n
	c.ring.next = n
}

func (c *LRUCache[T]) unlink(n *lruNode[T]) {
	n.prev.next, n.next.prev = n.next, n.prev
	n.prev, n.next = nil, nil
}

func (c *LRUCache[T]) drop(n *lruNode[T]) {
	c.unlink(n)
	delete(c.index, n.key)
}
