// Package ratelimit enforces per-route request quotas using a
// sliding-window-by-reset counter keyed by (client identity, route).
//
// The algorithm: the first request for a key opens a window (count=1,
// resetAt=now+window). Requests inside the window increment the counter
// until the quota is reached; the request that would exceed it is rejected
// with the number of seconds until the window resets. A request arriving
// after resetAt opens a fresh window.
//
// The counter store is an injected capability, not a hard-coded singleton:
// MemoryStore serves single-process deployments and RedisStore provides
// shared counters for horizontally scaled ones. Both apply the
// check-then-increment as a single atomic step per key, so concurrent
// requests can never both observe count < quota and both pass.
package ratelimit

import (
	"context"
	"time"

	"github.com/prepnest/go-exam-backend/internal/apperr"
)

// Store is the counter capability consumed by the Limiter. Implementations
// must make each call atomic with respect to other calls for the same key.
type Store interface {
	// Take applies the window algorithm for key: it either consumes one unit
	// of quota (allowed=true) or rejects the request (allowed=false with
	// retryAfter, the whole-second ceiling until the window resets).
	//
	// A store error means the counter backend is unavailable; callers decide
	// whether that fails open or closed.
	Take(ctx context.Context, key string, quota int, window time.Duration) (allowed bool, retryAfter int, err error)
}

// Limiter binds a Store to the route pipeline's contract: check a
// (clientKey, routeKey) pair against a quota and raise KindRateLimited on
// rejection.
type Limiter struct {
	store Store
}

// New constructs a Limiter over the given store.
func New(store Store) *Limiter {
	return &Limiter{store: store}
}

// Check consumes one unit of quota for the (clientKey, routeKey) bucket.
// It returns nil when the request is allowed, a KindRateLimited AppError
// carrying a retry-after hint when the quota is exhausted, and a
// KindInternal AppError when the counter backend fails (fail closed: a
// limiter outage must not silently disable the limit).
func (l *Limiter) Check(ctx context.Context, clientKey, routeKey string, quota int, window time.Duration) error {
	allowed, retryAfter, err := l.store.Take(ctx, Key(clientKey, routeKey), quota, window)
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "")
	}
	if !allowed {
		return apperr.RateLimited(retryAfter)
	}
	return nil
}

// Key derives the bucket key for a client/route pair. The route component
// keeps buckets disjoint: two routes hit by the same client never share a
// counter.
func Key(clientKey, routeKey string) string {
	return clientKey + "|" + routeKey
}

// ceilSeconds converts a remaining duration to the whole-second ceiling
// reported in retry-after hints. Never below 1: a client told to retry
// after 0 seconds would immediately collide with the same window.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
