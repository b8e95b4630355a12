// internal/crawl/frontier.go
package crawl

import (
	"context"
	"log/slog"

	"github.com/RecandChat/CodeCompass/internal/model"
)

// Frontier expands a seed set of users into the full user set to collect,
// by unioning every seed's followers and following. One bad user never
// aborts the expansion: its contribution is logged and skipped.
type Frontier struct {
	src      Source
	logger   *slog.Logger
	maxUsers int
}

// NewFrontier creates a frontier expander capped at maxUsers total users.
func NewFrontier(src Source, logger *slog.Logger, maxUsers int) *Frontier {
	return &Frontier{src: src, logger: logger, maxUsers: maxUsers}
}

// Expand returns the union of the seeds with each seed's followers and
// following, in insertion order. Insertion order makes the cap truncation
// deterministic: when the set exceeds maxUsers, the earliest-discovered
// users win. A rate-limited fetch pauses the run and is retried once; any
// other failure skips that seed's social graph but keeps the seed itself.
func (f *Frontier) Expand(ctx context.Context, seeds []string) ([]string, error) {
	seen := make(map[string]struct{})
	var ordered []string
	add := func(login string) {
		if login == "" {
			return
		}
		if _, ok := seen[login]; ok {
			return
		}
		seen[login] = struct{}{}
		ordered = append(ordered, login)
	}

	for _, seed := range seeds {
		if ctx.Err() != nil {
			return truncate(ordered, f.maxUsers), ctx.Err()
		}
		if len(ordered) >= f.maxUsers {
			f.logger.Info("User cap reached during expansion", "users", len(ordered), "cap", f.maxUsers)
			break
		}

		add(seed)

		followers := f.fetchUsers(ctx, seed, f.src.Followers)
		for _, login := range followers {
			add(login)
		}

		following := f.fetchUsers(ctx, seed, f.src.Following)
		for _, login := range following {
			add(login)
		}
	}

	return truncate(ordered, f.maxUsers), nil
}

// fetchUsers runs one social-graph fetch with the shared failure policy:
// pause and retry once on rate limiting, keep partial results, log and
// return nothing on failure.
func (f *Frontier) fetchUsers(
	ctx context.Context, seed string,
	fetch func(context.Context, string) model.Result[string],
) []string {
	res := fetch(ctx, seed)
	if res.RateLimited() {
		f.logger.Warn("Rate limited during expansion, pausing", "user", seed)
		if err := f.src.WaitQuota(ctx); err != nil {
			return res.Items
		}
		res = fetch(ctx, seed)
	}

	switch res.Outcome {
	case model.Failed:
		f.logger.Warn("Skipping social graph for user", "user", seed, "cause", res.Cause.String(), "error", res.Err)
		return nil
	case model.Partial:
		f.logger.Debug("Partial social graph for user", "user", seed, "cause", res.Cause.String(), "items", len(res.Items))
	}
	return res.Items
}

func truncate(users []string, max int) []string {
	if len(users) > max {
		return users[:max]
	}
	return users
}
