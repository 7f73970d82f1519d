package ttlcache

import (
	"context"
	"sync"
	"time"
)

// FetchFn produces a fresh value for a cache key.
type FetchFn func(ctx context.Context) (any, error)

type flight struct {
	done  chan struct{}
	value any
	err   error
}

// Fetcher wraps a Cache with read-through fetching. Concurrent calls for
// the same key share a single in-flight fetch (single-flight), so a burst
// of callers produces one network request.
type Fetcher struct {
	cache    *Cache
	mutex    sync.Mutex
	inflight map[string]*flight
}

func NewFetcher(cache *Cache) *Fetcher {
	return &Fetcher{
		cache:    cache,
		inflight: make(map[string]*flight),
	}
}

// Cache returns the underlying cache, for explicit invalidation.
func (f *Fetcher) Cache() *Cache {
	return f.cache
}

// Do returns the cached value for key if fresh; otherwise it invokes fn,
// stores the result for ttl, and returns it. Errors are never cached.
func (f *Fetcher) Do(ctx context.Context, key string, ttl time.Duration, fn FetchFn) (any, error) {
	if value, ok := f.cache.Get(key); ok {
		return value, nil
	}
	return f.fetch(ctx, key, ttl, fn)
}

// Refresh drops any cached value for key and fetches unconditionally.
func (f *Fetcher) Refresh(ctx context.Context, key string, ttl time.Duration, fn FetchFn) (any, error) {
	f.cache.Delete(key)
	return f.fetch(ctx, key, ttl, fn)
}

func (f *Fetcher) fetch(ctx context.Context, key string, ttl time.Duration, fn FetchFn) (any, error) {
	f.mutex.Lock()
	if fl, ok := f.inflight[key]; ok {
		f.mutex.Unlock()
		select {
		case <-fl.done:
			return fl.value, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fl := &flight{done: make(chan struct{})}
	f.inflight[key] = fl
	f.mutex.Unlock()

	fl.value, fl.err = fn(ctx)
	if fl.err == nil {
		f.cache.Set(key, fl.value, ttl)
	}

	f.mutex.Lock()
	delete(f.inflight, key)
	f.mutex.Unlock()
	close(fl.done)

	return fl.value, fl.err
}

// Get is a type-safe wrapper around Fetcher.Do.
func Get[T any](ctx context.Context, f *Fetcher, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	value, err := f.Do(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}
