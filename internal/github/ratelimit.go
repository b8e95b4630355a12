// internal/github/ratelimit.go
package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rate limit response headers.
const (
	headerRateLimit     = "X-RateLimit-Limit"
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
	headerRetryAfter    = "Retry-After"
)

// githubRateLimit is the authenticated hourly quota assumed before the
// first response arrives.
const githubRateLimit = 5000

// RateLimiter throttles requests against the GitHub API with a dual
// strategy: a proactive token bucket that spreads requests below the hourly
// quota, and reactive state fed from X-RateLimit-* response headers. When
// the remaining budget drops under the configured buffer, Wait blocks until
// the quota window resets.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetTime time.Time
	bucket    *rate.Limiter
	minBuffer int
}

// NewRateLimiter creates a limiter emitting at most rps requests per second
// and reserving minBuffer requests of the hourly quota.
func NewRateLimiter(rps float64, minBuffer int) *RateLimiter {
	return &RateLimiter{
		remaining: githubRateLimit,
		limit:     githubRateLimit,
		bucket:    rate.NewLimiter(rate.Limit(rps), 1),
		minBuffer: minBuffer,
	}
}

// Wait blocks until it is safe to make a request.
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

// UpdateFromResponse updates quota state from response headers.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if remaining := resp.Header.Get(headerRateRemaining); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			r.remaining = val
		}
	}
	if limit := resp.Header.Get(headerRateLimit); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			r.limit = val
		}
	}
	if reset := resp.Header.Get(headerRateReset); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			r.resetTime = time.Unix(val, 0)
		}
	}
	if retry := resp.Header.Get(headerRetryAfter); retry != "" {
		if seconds, err := strconv.Atoi(retry); err == nil {
			r.resetTime = time.Now().Add(time.Duration(seconds) * time.Second)
		}
	}
}

// Remaining returns the remaining requests in the current quota window.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Limit returns the quota window size.
func (r *RateLimiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

// ResetTime returns when the quota window resets.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}

// WaitForReset blocks until the quota window resets, or the context ends.
func (r *RateLimiter) WaitForReset(ctx context.Context) error {
	r.mu.Lock()
	resetTime := r.resetTime
	r.mu.Unlock()

	if !time.Now().Before(resetTime) {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Until(resetTime)):
		return nil
	}
}
