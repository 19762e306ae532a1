// Package retry provides a small reusable retry policy: a maximum attempt
// count, an exponential backoff schedule with jitter, and a caller-supplied
// retryable-error predicate. The same policy is applied to the archive
// download and to each per-file API fetch.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the backoff schedule.
	MaxDelay time.Duration
	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries timeouts and connection-level errors.
	Retryable func(error) bool
}

// Default is the policy used for network operations: three attempts with
// 500ms base delay doubling up to 10s.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// Delay returns the backoff delay preceding the given retry (0-based),
// with up to 30% jitter added.
func (p Policy) Delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	jitter := time.Duration(rand.Float64() * 0.3 * float64(d))
	return d + jitter
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsTransient(err)
}

// IsTransient reports whether an error looks like a transient network
// failure: a timeout or an OS-level connection error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Do runs fn under the policy, sleeping between attempts. It returns the
// first success, the first non-retryable error, or the last error once the
// attempt ceiling is exhausted. Context cancellation interrupts the backoff
// sleep immediately.
func Do[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(p.Delay(attempt - 1)):
			}
		}

		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}
		if !p.retryable(lastErr) {
			return result, lastErr
		}
	}

	return result, lastErr
}
