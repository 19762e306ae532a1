package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/repolens/repolens-cli/internal/core/domain"
)

const (
	// ProactiveRateAuthed throttles authenticated clients to ~1.2 req/sec
	// (4320/hr), comfortably under the 5000/hr quota.
	ProactiveRateAuthed = 1.2

	// ProactiveRateAnon throttles unauthenticated clients harder; the
	// anonymous quota is only 60/hr and the reactive half does the rest.
	ProactiveRateAnon = 0.8

	// HeaderRateLimit is the quota ceiling header.
	HeaderRateLimit = "X-RateLimit-Limit"

	// HeaderRateRemaining is the remaining-quota header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"

	// HeaderRetryAfter is the secondary-limit retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter combines proactive throttling (token bucket) with reactive
// tracking of the provider's quota headers. A single coordinator decides
// when to pause; workers only read outcomes through the returned errors.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetTime time.Time
	bucket    *rate.Limiter
	minBuffer int
}

// NewRateLimiter sizes the limiter for the given token class.
func NewRateLimiter(token domain.Token) *RateLimiter {
	proactive := ProactiveRateAnon
	minBuffer := 2
	if token.IsPresent() {
		proactive = ProactiveRateAuthed
		minBuffer = 10
	}
	return &RateLimiter{
		remaining: token.RateLimitPerHour,
		limit:     token.RateLimitPerHour,
		bucket:    rate.NewLimiter(rate.Limit(proactive), 1),
		minBuffer: minBuffer,
	}
}

// SetProactiveRate adjusts the token-bucket half of the limiter. Used by
// the client option that speeds tests up.
func (r *RateLimiter) SetProactiveRate(perSecond float64, burst int) {
	r.bucket.SetLimit(rate.Limit(perSecond))
	r.bucket.SetBurst(burst)
}

// Wait blocks until it is safe to make one request: first the proactive
// bucket, then a reactive check that pauses until the advertised reset when
// the remaining quota is inside the reserve buffer.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining := r.remaining
	resetTime := r.resetTime
	r.mu.Unlock()

	if remaining < r.minBuffer && time.Now().Before(resetTime) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(resetTime)):
		}
	}

	return nil
}

// UpdateFromResponse records quota state from response headers.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if remaining := resp.Header.Get(HeaderRateRemaining); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			r.remaining = val
		}
	}
	if limit := resp.Header.Get(HeaderRateLimit); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			r.limit = val
		}
	}
	if reset := resp.Header.Get(HeaderRateReset); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			r.resetTime = time.Unix(val, 0)
		}
	}
}

// CheckRateLimit inspects a raw response for a rate-limit signal: an
// explicit 429, or a 403 with the remaining quota at zero. It returns a
// RateLimitError carrying the reset time, or nil.
func (r *RateLimiter) CheckRateLimit(resp *http.Response) error {
	if resp == nil {
		return nil
	}

	r.UpdateFromResponse(resp)

	r.mu.Lock()
	remaining := r.remaining
	resetTime := r.resetTime
	limit := r.limit
	r.mu.Unlock()

	if resp.StatusCode != http.StatusTooManyRequests &&
		!(resp.StatusCode == http.StatusForbidden && remaining == 0) {
		return nil
	}

	if retryAfter := resp.Header.Get(HeaderRetryAfter); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			resetTime = time.Now().Add(time.Duration(seconds) * time.Second)
		}
	}

	return &RateLimitError{ResetAt: resetTime, Remaining: remaining, Limit: limit}
}

// Remaining returns the last-seen remaining quota.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// ResetTime returns the last-seen quota reset time.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}

// WaitForReset blocks until the advertised reset time has passed, or the
// fallback delay when no reset time is known.
func (r *RateLimiter) WaitForReset(ctx context.Context, fallback time.Duration) error {
	r.mu.Lock()
	resetTime := r.resetTime
	r.mu.Unlock()

	wait := fallback
	if !resetTime.IsZero() {
		wait = time.Until(resetTime)
	}
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
