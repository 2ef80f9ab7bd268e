// Package retry runs fallible operations with configurable backoff. It is
// orthogonal to the request pipeline: services use it around datastore or
// third-party calls, and any caller may use it directly.
//
// The policy semantics are strict: an operation runs at most MaxRetries+1
// times; a failure on the final attempt is re-raised immediately with no
// trailing delay; client errors (HTTP 400–499, except 429) are never
// retried because retrying them cannot succeed; and a caller-supplied
// condition can veto retries for any error. Delays grow linearly
// (base*(attempt+1)) or exponentially (base*2^attempt) with the 0-indexed
// attempt counter, so the first delay after the first failure uses
// attempt=0.
package retry

import (
	"context"
	"net/http"
	"time"

	"github.com/prepnest/go-exam-backend/internal/apperr"
)

// Backoff selects the delay growth curve.
type Backoff int

const (
	// Linear grows delays as base, 2*base, 3*base, ...
	Linear Backoff = iota
	// Exponential grows delays as base, 2*base, 4*base, ...
	Exponential
)

// Policy configures one Do invocation. Policies are plain values
// constructed by the caller per call site; they hold no shared state.
type Policy struct {
	// MaxRetries is the number of re-attempts after the first try.
	MaxRetries int
	// BaseDelay seeds the backoff curve. Zero means no waiting.
	BaseDelay time.Duration
	// Backoff selects Linear or Exponential growth.
	Backoff Backoff
	// RetryIf, when set, is consulted after every failure; returning false
	// re-raises the error immediately without consuming further retries.
	RetryIf func(err error) bool
}

// Do runs op until it succeeds, the policy is exhausted, or the error is
// deemed non-retryable, returning op's value or the last error. The
// context cancels both the operation (op receives it) and any pending
// backoff delay.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == policy.MaxRetries {
			break // exhausted: re-raise with no further delay
		}
		if policy.RetryIf != nil && !policy.RetryIf(err) {
			break
		}
		if !retryableStatus(err) {
			break
		}
		if err := sleep(ctx, policy.delay(attempt)); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// Run is Do for operations with no return value.
func Run(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// delay computes the pause before the retry following the given 0-indexed
// failed attempt.
func (p Policy) delay(attempt int) time.Duration {
	switch p.Backoff {
	case Exponential:
		return p.BaseDelay * (1 << attempt)
	default:
		return p.BaseDelay * time.Duration(attempt+1)
	}
}

// retryableStatus reports whether err may be retried based on its HTTP
// status. Client errors other than 429 are terminal; errors outside the
// taxonomy carry no status and stay retryable.
func retryableStatus(err error) bool {
	ae := apperr.From(err)
	if ae == nil {
		return true
	}
	status := ae.Status()
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return status == http.StatusTooManyRequests
	}
	return true
}

// sleep waits for d or until the context is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
