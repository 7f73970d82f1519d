package cache

import (
	"strings"
	"sync"
)

// Provider is an interface for bucket storage.
// It stores and retrieves []byte values, which represent HTTP responses.
// Keys are namespaced by bucket name, so prefix operations are the way
// whole buckets get enumerated and dropped.
//
// Implementations must be thread-safe!
type Provider interface {
	// Get returns the stored bytes for the given key, if they exist.
	Get(key string) ([]byte, bool, error)
	// Put stores the given bytes under the given key, overwriting any
	// previous value.
	Put(key string, bytes []byte) error
	// Has checks if the specified key exists.
	Has(key string) bool
	// Purge removes the entry for the given key.
	Purge(key string)
	// PurgePrefix removes every entry whose key starts with the prefix.
	PurgePrefix(prefix string)
	// Keys calls the given callback for each key with the given prefix.
	// It calls the callback in order to enable very large lists of keys
	// to be processable.
	Keys(prefix string, cb func(string))
}

type MemCache struct {
	mutex *sync.RWMutex
	db    map[string][]byte
}

func NewMemCache() MemCache {
	return MemCache{
		mutex: &sync.RWMutex{},
		db:    make(map[string][]byte),
	}
}

func (m MemCache) Get(key string) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	bytes, ok := m.db[key]
	return bytes, ok, nil
}

func (m MemCache) Put(key string, bytes []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.db[key] = bytes
	return nil
}

func (m MemCache) Has(key string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.db[key]
	return ok
}

func (m MemCache) Purge(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.db, key)
}

func (m MemCache) PurgePrefix(prefix string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for key := range m.db {
		if strings.HasPrefix(key, prefix) {
			delete(m.db, key)
		}
	}
}

func (m MemCache) Keys(prefix string, cb func(string)) {
	m.mutex.RLock()
	keys := make([]string, 0, len(m.db))
	for key := range m.db {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	m.mutex.RUnlock()
	for _, key := range keys {
		cb(key)
	}
}
