// In-memory counter store.
//
// A mutex-guarded map of window entries, suitable for a single process.
// Expired entries are normally overwritten in place when their key is seen
// again, but keys that are never revisited would otherwise accumulate
// forever; an opportunistic sweep after a threshold of operations evicts
// windows that have been closed for longer than a grace TTL, keeping memory
// bounded over long process lifetimes.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is the number of Take operations between opportunistic sweeps.
const sweepEvery = 5000

// staleGrace is how long past its reset a window may linger before the
// sweep removes it.
const staleGrace = 10 * time.Minute

// windowEntry is one counter: requests seen in the current window and the
// instant the window resets.
type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryStore implements Store with a process-local map. The single mutex
// makes every read-modify-write of an entry a critical section, which is
// the atomicity the quota invariant requires. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	sweepN  uint64

	// now is the clock; replaced in tests to drive window expiry.
	now func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, key string, quota int, window time.Duration) (bool, int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Sweep long-dead windows before touching the requested entry so the
	// key being fetched can itself be evicted and rebuilt.
	s.sweepN++
	if s.sweepN >= sweepEvery {
		for k, e := range s.entries {
			if now.Sub(e.resetAt) >= staleGrace {
				delete(s.entries, k)
			}
		}
		s.sweepN = 0
	}

	e, ok := s.entries[key]
	if !ok || now.After(e.resetAt) {
		s.entries[key] = &windowEntry{count: 1, resetAt: now.Add(window)}
		return true, 0, nil
	}
	if e.count >= quota {
		return false, ceilSeconds(e.resetAt.Sub(now)), nil
	}
	e.count++
	return true, 0, nil
}

// Len reports the number of tracked buckets. Exposed for tests and for
// capacity gauges.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
