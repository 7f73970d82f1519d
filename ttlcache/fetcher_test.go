package ttlcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoCachesResult(t *testing.T) {
	f := NewFetcher(New())
	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := f.Do(context.Background(), "k", time.Minute, fn)
		if err != nil || v != "value" {
			t.Fatalf("Do returned %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("fetch fn called %d times", calls)
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	f := NewFetcher(New())
	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("origin down")
		}
		return "recovered", nil
	}

	if _, err := f.Do(context.Background(), "k", time.Minute, fn); err == nil {
		t.Fatal("expected error")
	}
	v, err := f.Do(context.Background(), "k", time.Minute, fn)
	if err != nil || v != "recovered" {
		t.Fatalf("Do returned %v, %v", v, err)
	}
}

func TestRefreshBypassesCache(t *testing.T) {
	f := NewFetcher(New())
	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	f.Do(context.Background(), "k", time.Minute, fn)
	v, err := f.Refresh(context.Background(), "k", time.Minute, fn)
	if err != nil || v != 2 {
		t.Fatalf("Refresh returned %v, %v", v, err)
	}
	if calls != 2 {
		t.Fatalf("fetch fn called %d times", calls)
	}
}

// Concurrent callers for the same key must share one in-flight fetch.
func TestSingleFlight(t *testing.T) {
	f := NewFetcher(New())
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = f.Do(context.Background(), "k", time.Minute, fn)
		}(i)
	}

	<-started
	// give the rest of the goroutines a chance to pile up on the flight
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("fetch fn called %d times", n)
	}
	for i, v := range results {
		if v != "shared" {
			t.Fatalf("caller %d got %v", i, v)
		}
	}
}

func TestGetTypedWrapper(t *testing.T) {
	f := NewFetcher(New())
	v, err := Get(context.Background(), f, "k", time.Minute, func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	if err != nil || len(v) != 2 {
		t.Fatalf("Get returned %v, %v", v, err)
	}
}
