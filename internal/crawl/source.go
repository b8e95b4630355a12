// internal/crawl/source.go
package crawl

import (
	"context"

	"github.com/RecandChat/CodeCompass/internal/model"
)

// Source is the slice of the GitHub client the crawler depends on. All
// fetchers return tagged results: Partial results carry everything fetched
// before the stop, and the cause says whether the stop was the item cap, a
// rate limit, or an error.
type Source interface {
	SearchNotableUsers(ctx context.Context, n int) model.Result[string]
	SearchRepositories(ctx context.Context, query string, n int) model.Result[model.RepositoryRecord]
	Followers(ctx context.Context, user string) model.Result[string]
	Following(ctx context.Context, user string) model.Result[string]
	Repositories(ctx context.Context, user string) model.Result[model.RepositoryRecord]
	Starred(ctx context.Context, user string) model.Result[model.RepositoryRecord]

	// WaitQuota blocks until the API request budget has recovered. The
	// crawler calls it when a fetch reports a rate-limit cause: being
	// rate-limited pauses the run, it never counts as "user not found".
	WaitQuota(ctx context.Context) error
}
