package cache

import (
	"path/filepath"
	"sort"
	"testing"
)

func providers(t *testing.T) map[string]Provider {
	t.Helper()
	ldb, err := NewLevelDBCache(filepath.Join(t.TempDir(), "buckets"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ldb.Close() })
	return map[string]Provider{
		"memory":  NewMemCache(),
		"sqlite":  NewSQLiteCache(""),
		"leveldb": ldb,
	}
}

func TestPutGet(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			if err := p.Put("static-v1|/app.js", []byte("content")); err != nil {
				t.Fatal(err)
			}
			bytes, ok, err := p.Get("static-v1|/app.js")
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("key not found")
			}
			if string(bytes) != "content" {
				t.Fatalf("got %q", bytes)
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := p.Get("nope"); err != nil {
				t.Fatal(err)
			} else if ok {
				t.Fatal("found a key that was never put")
			}
			if p.Has("nope") {
				t.Fatal("Has reported a key that was never put")
			}
		})
	}
}

func TestPutOverwrites(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			p.Put("key", []byte("old"))
			p.Put("key", []byte("new"))
			bytes, _, _ := p.Get("key")
			if string(bytes) != "new" {
				t.Fatalf("got %q", bytes)
			}
		})
	}
}

func TestPurge(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			p.Put("key", []byte("content"))
			p.Purge("key")
			if p.Has("key") {
				t.Fatal("key survived purge")
			}
		})
	}
}

func TestPurgePrefix(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			p.Put("static-v1|/a", []byte("a"))
			p.Put("static-v1|/b", []byte("b"))
			p.Put("static-v2|/a", []byte("a"))
			p.PurgePrefix("static-v1")
			if p.Has("static-v1|/a") || p.Has("static-v1|/b") {
				t.Fatal("old bucket entries survived")
			}
			if !p.Has("static-v2|/a") {
				t.Fatal("current bucket entry was purged")
			}
		})
	}
}

func TestKeys(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			p.Put("images-v1|/cars/1.jpg", []byte("x"))
			p.Put("images-v1|/cars/2.jpg", []byte("x"))
			p.Put("dynamic-v1|/tr", []byte("x"))

			keys := make([]string, 0)
			p.Keys("images-v1", func(key string) {
				keys = append(keys, key)
			})
			sort.Strings(keys)

			if len(keys) != 2 || keys[0] != "images-v1|/cars/1.jpg" || keys[1] != "images-v1|/cars/2.jpg" {
				t.Fatalf("got %v", keys)
			}
		})
	}
}
