package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prepnest/go-exam-backend/internal/apperr"
)

// fakeClock drives MemoryStore expiry deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestStore() (*MemoryStore, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = clk.now
	return s, clk
}

// Quota semantics (property P2): exactly N requests succeed inside the
// window, the (N+1)th is rejected, and the counter resets once the window
// elapses.
func TestMemoryStore_QuotaWindow(t *testing.T) {
	const quota = 3
	window := 10 * time.Second
	s, clk := newTestStore()
	ctx := context.Background()

	for i := 0; i < quota; i++ {
		allowed, _, err := s.Take(ctx, "c1|/courses", quota, window)
		if err != nil || !allowed {
			t.Fatalf("request %d: allowed=%v err=%v, want allowed", i+1, allowed, err)
		}
	}

	allowed, retryAfter, err := s.Take(ctx, "c1|/courses", quota, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("request %d should have been rejected", quota+1)
	}
	if retryAfter != 10 {
		t.Fatalf("retryAfter = %d, want 10 (full window remaining)", retryAfter)
	}

	// Partway through the window the hint shrinks, rounded up.
	clk.advance(7500 * time.Millisecond)
	if _, retryAfter, _ = s.Take(ctx, "c1|/courses", quota, window); retryAfter != 3 {
		t.Fatalf("retryAfter = %d, want ceil(2.5s) = 3", retryAfter)
	}

	// After the window elapses the counter resets.
	clk.advance(3 * time.Second)
	allowed, _, err = s.Take(ctx, "c1|/courses", quota, window)
	if err != nil || !allowed {
		t.Fatalf("post-window request rejected: allowed=%v err=%v", allowed, err)
	}
}

func TestMemoryStore_KeysAreDisjoint(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	// Exhaust one bucket.
	s.Take(ctx, Key("c1", "/a"), 1, time.Minute)

	// Same client, different route: independent bucket.
	if allowed, _, _ := s.Take(ctx, Key("c1", "/b"), 1, time.Minute); !allowed {
		t.Fatalf("different route shared a bucket")
	}
	// Different client, same route: independent bucket.
	if allowed, _, _ := s.Take(ctx, Key("c2", "/a"), 1, time.Minute); !allowed {
		t.Fatalf("different client shared a bucket")
	}
	// The exhausted bucket stays exhausted.
	if allowed, _, _ := s.Take(ctx, Key("c1", "/a"), 1, time.Minute); allowed {
		t.Fatalf("exhausted bucket allowed a request")
	}
}

// Concurrent takes on one key must never overshoot the quota.
func TestMemoryStore_ConcurrentTakesRespectQuota(t *testing.T) {
	const quota = 50
	const workers = 200
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var allowedCount int64
	var mu sync.Mutex
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _, _ := s.Take(ctx, "k", quota, time.Minute)
			if allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != quota {
		t.Fatalf("allowed %d requests, want exactly %d", allowedCount, quota)
	}
}

func TestMemoryStore_SweepEvictsStaleWindows(t *testing.T) {
	s, clk := newTestStore()
	ctx := context.Background()

	s.Take(ctx, "stale", 5, time.Second)
	// Window closed and grace elapsed.
	clk.advance(time.Second + staleGrace)

	s.mu.Lock()
	s.sweepN = sweepEvery - 1
	s.mu.Unlock()

	s.Take(ctx, "fresh", 5, time.Minute)

	s.mu.Lock()
	_, staleExists := s.entries["stale"]
	_, freshExists := s.entries["fresh"]
	s.mu.Unlock()
	if staleExists {
		t.Fatalf("stale window survived the sweep")
	}
	if !freshExists {
		t.Fatalf("fresh window missing after sweep")
	}
}

// errStore simulates a counter backend outage.
type errStore struct{}

func (errStore) Take(context.Context, string, int, time.Duration) (bool, int, error) {
	return false, 0, errors.New("backend down")
}

func TestLimiter_Check(t *testing.T) {
	s, _ := newTestStore()
	l := New(s)
	ctx := context.Background()

	if err := l.Check(ctx, "c1", "/courses", 1, time.Minute); err != nil {
		t.Fatalf("first request: %v", err)
	}

	err := l.Check(ctx, "c1", "/courses", 1, time.Minute)
	ae := apperr.From(err)
	if ae == nil || ae.Kind != apperr.KindRateLimited {
		t.Fatalf("expected KindRateLimited, got %v", err)
	}
	d, ok := ae.Details.(map[string]int)
	if !ok || d["retryAfterSeconds"] < 1 {
		t.Fatalf("missing retry-after detail: %v", ae.Details)
	}

	// Backend failure fails closed as an internal error.
	err = New(errStore{}).Check(ctx, "c1", "/courses", 1, time.Minute)
	if !apperr.IsKind(err, apperr.KindInternal) {
		t.Fatalf("expected KindInternal on store failure, got %v", err)
	}
}

func TestCeilSeconds(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{-time.Second, 1},
		{300 * time.Millisecond, 1},
		{time.Second, 1},
		{1001 * time.Millisecond, 2},
		{59*time.Second + time.Millisecond, 60},
	}
	for _, tc := range cases {
		if got := ceilSeconds(tc.in); got != tc.want {
			t.Fatalf("ceilSeconds(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
