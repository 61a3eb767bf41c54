package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ReadThrough serves reads from a Cache and falls back to a loader on miss.
// Concurrent misses for the same key share one load. A load that overlaps
// an Invalidate of its key is returned to its callers but not cached.
type ReadThrough[T any] struct {
	cache Cache[T]
	group singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
}

func NewReadThrough[T any](c Cache[T]) *ReadThrough[T] {
	return &ReadThrough[T]{cache: c, gens: make(map[string]uint64)}
}

// Get returns the cached value for key or calls load and caches its result.
// Load errors are returned and nothing is cached.
func (r *ReadThrough[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := r.cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.cache.Get(key); ok {
			return v, nil
		}
		gen := r.generation(key)
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if r.gens[key] == gen {
			r.cache.Set(key, v)
		}
		r.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops key so the next Get reloads, and keeps any load already
// in flight from storing what it read.
func (r *ReadThrough[T]) Invalidate(key string) {
	r.mu.Lock()
	r.gens[key]++
	r.cache.Invalidate(key)
	r.mu.Unlock()
	r.group.Forget(key)
}

func (r *ReadThrough[T]) generation(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[key]
}
