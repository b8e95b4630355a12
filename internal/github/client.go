// internal/github/client.go
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/RecandChat/CodeCompass/internal/config"
)

const requestTimeout = 30 * time.Second

// Client wraps the go-github client with rate limiting and the paginated
// entity fetchers the crawler is built on. All requests carry the token and
// go-github's pinned v3 Accept media type; the client never retries on its
// own — a failed page is surfaced to the caller as a tagged result.
type Client struct {
	gh      *github.Client
	limiter *RateLimiter
	logger  *slog.Logger

	pageSize        int
	starredPageSize int
	repoCap         int
	followerCap     int
	starredCap      int
}

// NewClient creates and configures a new Client instance. The token from
// cfg is used to build an authenticated http.Client.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.GithubToken},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = requestTimeout

	return &Client{
		gh:              github.NewClient(tc),
		limiter:         NewRateLimiter(cfg.RequestsPerSecond, cfg.RateLimitBuffer),
		logger:          logger,
		pageSize:        cfg.PageSize,
		starredPageSize: cfg.StarredPageSize,
		repoCap:         cfg.RepoCap,
		followerCap:     cfg.FollowerCap,
		starredCap:      cfg.StarredCap,
	}
}

// SetBaseURL points the client at an alternate API endpoint, used by
// tests that stand in for api.github.com.
func (c *Client) SetBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing base URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c.gh.BaseURL = u
	return nil
}

// RateLimiter exposes the limiter so orchestration layers can pause on a
// rate-limited result instead of skipping the user.
func (c *Client) RateLimiter() *RateLimiter {
	return c.limiter
}

// WaitQuota blocks until the current quota window resets. Callers use it
// to pause a run after a rate-limited fetch instead of skipping work.
func (c *Client) WaitQuota(ctx context.Context) error {
	return c.limiter.WaitForReset(ctx)
}

func (c *Client) updateRateLimit(resp *github.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.limiter.UpdateFromResponse(resp.Response)
}
