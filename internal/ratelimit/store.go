// Package ratelimit implements fixed-window request limiting keyed by
// caller identity.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result describes the outcome of one limiter check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Store counts requests per key within discrete windows. Implementations
// must serialize increments on the same key: concurrent requests may be
// processed in either order, but no update may be lost.
type Store interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// sweepInterval bounds how often the in-memory store walks its map. All
// cleanup happens opportunistically on the request path; there is no
// background sweeper.
const sweepInterval = time.Minute

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore is the process-local Store. Construct one per server (or per
// test) rather than sharing a package-level instance.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*entry
	nextSweep time.Time
	now       func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Take records one request for key and reports whether it fits the window.
func (s *MemoryStore) Take(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{resetAt: now.Add(window)}
		s.entries[key] = e
	}

	if e.count >= limit {
		return Result{
			Limit:      limit,
			ResetAt:    e.resetAt,
			RetryAfter: e.resetAt.Sub(now),
		}, nil
	}

	e.count++
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - e.count,
		ResetAt:   e.resetAt,
	}, nil
}

// sweep drops entries whose window has elapsed. Amortized: at most one walk
// per sweepInterval, always under the store lock.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
		}
	}
	s.nextSweep = now.Add(sweepInterval)
}
