package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestStore(start time.Time) (*MemoryStore, *time.Time) {
	now := start
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMemoryStoreWindow(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store, clock := newTestStore(start)
	ctx := context.Background()

	const limit = 3
	window := time.Minute

	for i := 1; i <= limit; i++ {
		res, err := store.Take(ctx, "10.0.0.1", limit, window)
		if err != nil {
			t.Fatalf("take %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if res.Remaining != limit-i {
			t.Fatalf("request %d remaining = %d, want %d", i, res.Remaining, limit-i)
		}
	}

	res, err := store.Take(ctx, "10.0.0.1", limit, window)
	if err != nil {
		t.Fatalf("take over limit: %v", err)
	}
	if res.Allowed {
		t.Fatal("4th request should be denied")
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("retry-after = %v, want > 0", res.RetryAfter)
	}
	if got, want := res.ResetAt, start.Add(window); !got.Equal(want) {
		t.Fatalf("reset at %v, want %v", got, want)
	}

	// A different key has its own window.
	if res, _ := store.Take(ctx, "10.0.0.2", limit, window); !res.Allowed {
		t.Fatal("separate key must not share the bucket")
	}

	// Window elapses; the counter resets to 1.
	*clock = start.Add(window)
	res, err = store.Take(ctx, "10.0.0.1", limit, window)
	if err != nil {
		t.Fatalf("take after reset: %v", err)
	}
	if !res.Allowed {
		t.Fatal("request after window should be allowed")
	}
	if res.Remaining != limit-1 {
		t.Fatalf("remaining after reset = %d, want %d", res.Remaining, limit-1)
	}
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const n = 50
	const limit = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Take(ctx, "shared", limit, time.Minute); err != nil {
				t.Errorf("take: %v", err)
			}
		}()
	}
	wg.Wait()

	// n serialized increments must all land: the next take observes count n.
	res, err := store.Take(ctx, "shared", limit, time.Minute)
	if err != nil {
		t.Fatalf("final take: %v", err)
	}
	if got, want := res.Remaining, limit-n-1; got != want {
		t.Fatalf("remaining = %d, want %d (lost updates)", got, want)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store, clock := newTestStore(start)
	ctx := context.Background()

	window := 10 * time.Second
	for _, key := range []string{"a", "b", "c"} {
		if _, err := store.Take(ctx, key, 5, window); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	// Past both the windows and the sweep interval, a request purges the
	// stale entries on its way through.
	*clock = start.Add(sweepInterval + time.Second)
	if _, err := store.Take(ctx, "d", 5, window); err != nil {
		t.Fatalf("trigger sweep: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.entries) != 1 {
		t.Fatalf("entries after sweep = %d, want 1", len(store.entries))
	}
	if _, ok := store.entries["d"]; !ok {
		t.Fatal("live entry was swept")
	}
}
