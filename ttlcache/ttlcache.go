// Package ttlcache is an in-memory TTL cache for parsed API responses.
// Entries expire lazily on read, there is no background sweep. The cache is
// best-effort: any internal failure degrades to a miss, so callers must
// always keep a live fetch path.
package ttlcache

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTTL is used when Set is called with a non-positive ttl.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) fresh(now time.Time) bool {
	return now.Sub(e.storedAt) <= e.ttl
}

// Cache is a mutex-guarded string-keyed TTL map. Construct one per
// application instance so tests can create isolated caches.
type Cache struct {
	mutex   sync.Mutex
	entries map[string]entry
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
	}
}

// Set stores value under key for the given ttl.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = entry{value: value, storedAt: time.Now(), ttl: ttl}
}

// Get returns the stored value if it is still fresh. An expired entry is
// deleted and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.fresh(time.Now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Has reports whether a fresh entry exists for key, expiring it if stale.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]entry)
}

// DeletePrefix removes every entry whose key starts with prefix. Used for
// targeted invalidation of one key namespace.
func (c *Cache) DeletePrefix(prefix string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Key derives a cache key as prefix + ":" + JSON(params). encoding/json
// writes map keys in sorted order, so map params produce stable keys;
// struct params are stable by field order. Callers passing anything else
// must guarantee deterministic serialization themselves.
func Key(prefix string, params any) string {
	if params == nil {
		return prefix + ":null"
	}
	b, err := json.Marshal(params)
	if err != nil {
		log.Warn().Err(err).Str("prefix", prefix).Msg("Could not serialize cache key params")
		return prefix + ":unserializable"
	}
	return prefix + ":" + string(b)
}

// SetWithKey stores value under the key derived from prefix and params.
func (c *Cache) SetWithKey(prefix string, params any, value any, ttl time.Duration) {
	c.Set(Key(prefix, params), value, ttl)
}

// GetWithKey returns the value stored under the key derived from prefix
// and params.
func (c *Cache) GetWithKey(prefix string, params any) (any, bool) {
	return c.Get(Key(prefix, params))
}
