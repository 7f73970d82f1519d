package ttlcache

import (
	"testing"
	"time"
)

func TestSetGetWithinTTL(t *testing.T) {
	c := New()
	c.Set("k", "v", 100*time.Millisecond)

	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get returned %v, %v", v, ok)
	}
}

func TestExpiryIsLazy(t *testing.T) {
	c := New()
	c.Set("k", "v", 50*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry returned")
	}
	if c.Has("k") {
		t.Fatal("Has true after expiry")
	}
}

func TestHasDoesNotReturnValueButChecksFreshness(t *testing.T) {
	c := New()
	c.Set("k", "v", time.Minute)
	if !c.Has("k") {
		t.Fatal("Has false for fresh entry")
	}
	if c.Has("missing") {
		t.Fatal("Has true for missing entry")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New()
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Delete("a")
	if c.Has("a") {
		t.Fatal("deleted entry still present")
	}

	c.Clear()
	if c.Has("b") {
		t.Fatal("cleared entry still present")
	}
}

func TestDeletePrefix(t *testing.T) {
	c := New()
	c.Set("vehicles:1", 1, time.Minute)
	c.Set("vehicles:2", 2, time.Minute)
	c.Set("blog:1", 3, time.Minute)

	c.DeletePrefix("vehicles:")

	if c.Has("vehicles:1") || c.Has("vehicles:2") {
		t.Fatal("prefix entries survived")
	}
	if !c.Has("blog:1") {
		t.Fatal("unrelated entry deleted")
	}
}

func TestWithKeyDerivation(t *testing.T) {
	c := New()
	c.SetWithKey("cars", map[string]int{"page": 1}, "dataA", time.Minute)

	if v, ok := c.GetWithKey("cars", map[string]int{"page": 1}); !ok || v != "dataA" {
		t.Fatalf("same params missed: %v, %v", v, ok)
	}
	if _, ok := c.GetWithKey("cars", map[string]int{"page": 2}); ok {
		t.Fatal("different params hit")
	}
}

func TestKeyIsDeterministicForMaps(t *testing.T) {
	a := Key("cars", map[string]int{"page": 1, "year": 2024})
	for i := 0; i < 20; i++ {
		if b := Key("cars", map[string]int{"year": 2024, "page": 1}); b != a {
			t.Fatalf("key not deterministic: %q vs %q", a, b)
		}
	}
}

func TestZeroTTLUsesDefault(t *testing.T) {
	c := New()
	c.Set("k", "v", 0)
	if !c.Has("k") {
		t.Fatal("entry with default TTL missing")
	}
}
