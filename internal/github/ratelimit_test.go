// internal/github/ratelimit_test.go
package github

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseWithHeaders(h map[string]string) *http.Response {
	header := http.Header{}
	for k, v := range h {
		header.Set(k, v)
	}
	return &http.Response{Header: header}
}

func TestRateLimiter_UpdateFromResponse(t *testing.T) {
	rl := NewRateLimiter(1000, 100)
	reset := time.Now().Add(30 * time.Minute).Unix()

	rl.UpdateFromResponse(responseWithHeaders(map[string]string{
		"X-RateLimit-Limit":     "5000",
		"X-RateLimit-Remaining": "4321",
		"X-RateLimit-Reset":     fmt.Sprintf("%d", reset),
	}))

	assert.Equal(t, 5000, rl.Limit())
	assert.Equal(t, 4321, rl.Remaining())
	assert.Equal(t, time.Unix(reset, 0), rl.ResetTime())
}

func TestRateLimiter_RetryAfterOverridesReset(t *testing.T) {
	rl := NewRateLimiter(1000, 100)

	before := time.Now()
	rl.UpdateFromResponse(responseWithHeaders(map[string]string{
		"Retry-After": "90",
	}))

	assert.WithinDuration(t, before.Add(90*time.Second), rl.ResetTime(), 2*time.Second)
}

func TestRateLimiter_WaitDoesNotBlockWithBudget(t *testing.T) {
	rl := NewRateLimiter(1000, 100)
	rl.UpdateFromResponse(responseWithHeaders(map[string]string{
		"X-RateLimit-Remaining": "4000",
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rl.Wait(ctx))
}

func TestRateLimiter_WaitBlocksUnderBuffer(t *testing.T) {
	rl := NewRateLimiter(1000, 100)
	rl.UpdateFromResponse(responseWithHeaders(map[string]string{
		"X-RateLimit-Remaining": "5",
		"X-RateLimit-Reset":     fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()),
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_WaitForResetReturnsWhenPast(t *testing.T) {
	rl := NewRateLimiter(1000, 100)
	rl.UpdateFromResponse(responseWithHeaders(map[string]string{
		"X-RateLimit-Reset": fmt.Sprintf("%d", time.Now().Add(-time.Minute).Unix()),
	}))

	require.NoError(t, rl.WaitForReset(context.Background()))
}
