package github

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens-cli/internal/core/domain"
)

func responseWithHeaders(status int, remaining, limit int, reset time.Time) *http.Response {
	h := http.Header{}
	h.Set(HeaderRateRemaining, strconv.Itoa(remaining))
	h.Set(HeaderRateLimit, strconv.Itoa(limit))
	h.Set(HeaderRateReset, strconv.FormatInt(reset.Unix(), 10))
	return &http.Response{StatusCode: status, Header: h}
}

func TestNewRateLimiter_TokenAware(t *testing.T) {
	anon := NewRateLimiter(domain.ClassifyToken(""))
	assert.Equal(t, 60, anon.Remaining())

	authed := NewRateLimiter(domain.ClassifyToken("ghp_abc"))
	assert.Equal(t, 5000, authed.Remaining())
}

func TestUpdateFromResponse(t *testing.T) {
	r := NewRateLimiter(domain.ClassifyToken("ghp_abc"))
	reset := time.Now().Add(time.Hour).Truncate(time.Second)

	r.UpdateFromResponse(responseWithHeaders(200, 4321, 5000, reset))

	assert.Equal(t, 4321, r.Remaining())
	assert.Equal(t, reset.Unix(), r.ResetTime().Unix())
}

func TestCheckRateLimit_CleanResponse(t *testing.T) {
	r := NewRateLimiter(domain.ClassifyToken("ghp_abc"))
	err := r.CheckRateLimit(responseWithHeaders(200, 4000, 5000, time.Now().Add(time.Hour)))
	assert.NoError(t, err)
}

func TestCheckRateLimit_TooManyRequests(t *testing.T) {
	r := NewRateLimiter(domain.ClassifyToken("ghp_abc"))
	reset := time.Now().Add(30 * time.Minute)

	err := r.CheckRateLimit(responseWithHeaders(http.StatusTooManyRequests, 100, 5000, reset))

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, reset.Unix(), rateErr.ResetAt.Unix())
	assert.True(t, IsRateLimited(err))
}

func TestCheckRateLimit_ForbiddenWithZeroRemaining(t *testing.T) {
	r := NewRateLimiter(domain.ClassifyToken(""))

	err := r.CheckRateLimit(responseWithHeaders(http.StatusForbidden, 0, 60, time.Now().Add(time.Minute)))

	assert.True(t, IsRateLimited(err))
}

func TestCheckRateLimit_ForbiddenWithQuotaLeftIsNotRateLimit(t *testing.T) {
	r := NewRateLimiter(domain.ClassifyToken("ghp_abc"))

	err := r.CheckRateLimit(responseWithHeaders(http.StatusForbidden, 4000, 5000, time.Now().Add(time.Minute)))

	assert.NoError(t, err)
}

func TestCheckRateLimit_RetryAfterOverridesReset(t *testing.T) {
	r := NewRateLimiter(domain.ClassifyToken("ghp_abc"))
	resp := responseWithHeaders(http.StatusTooManyRequests, 0, 5000, time.Now().Add(time.Hour))
	resp.Header.Set(HeaderRetryAfter, "7")

	before := time.Now()
	err := r.CheckRateLimit(resp)

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.WithinDuration(t, before.Add(7*time.Second), rateErr.ResetAt, 2*time.Second)
}

func TestWaitForReset_PastResetReturnsImmediately(t *testing.T) {
	r := NewRateLimiter(domain.ClassifyToken("ghp_abc"))
	r.UpdateFromResponse(responseWithHeaders(200, 0, 5000, time.Now().Add(-time.Minute)))

	start := time.Now()
	err := r.WaitForReset(context.Background(), time.Minute)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitForReset_CancelledContext(t *testing.T) {
	r := NewRateLimiter(domain.ClassifyToken("ghp_abc"))
	r.UpdateFromResponse(responseWithHeaders(200, 0, 5000, time.Now().Add(time.Hour)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.WaitForReset(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
