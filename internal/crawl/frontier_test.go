// internal/crawl/frontier_test.go
package crawl

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecandChat/CodeCompass/internal/model"
)

// fakeSource is an in-memory Source for crawler tests. Unknown users
// yield empty Complete results.
type fakeSource struct {
	seeds     model.Result[string]
	searches  map[string]model.Result[model.RepositoryRecord]
	followers map[string]model.Result[string]
	following map[string]model.Result[string]
	repos     map[string]model.Result[model.RepositoryRecord]
	starred   map[string]model.Result[model.RepositoryRecord]

	repoCalls  map[string]int
	quotaWaits int

	// afterQuotaRepos replaces repos entries once WaitQuota has been
	// called, to model a quota window that recovered.
	afterQuotaRepos map[string]model.Result[model.RepositoryRecord]
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		searches:  map[string]model.Result[model.RepositoryRecord]{},
		followers: map[string]model.Result[string]{},
		following: map[string]model.Result[string]{},
		repos:     map[string]model.Result[model.RepositoryRecord]{},
		starred:   map[string]model.Result[model.RepositoryRecord]{},
		repoCalls: map[string]int{},
	}
}

func lookup[T any](m map[string]model.Result[T], key string) model.Result[T] {
	if res, ok := m[key]; ok {
		return res
	}
	return model.CompleteResult[T](nil)
}

func (f *fakeSource) SearchNotableUsers(_ context.Context, n int) model.Result[string] {
	res := f.seeds
	if len(res.Items) > n {
		res.Items = res.Items[:n]
	}
	return res
}

func (f *fakeSource) SearchRepositories(_ context.Context, query string, _ int) model.Result[model.RepositoryRecord] {
	return lookup(f.searches, query)
}

func (f *fakeSource) Followers(_ context.Context, user string) model.Result[string] {
	return lookup(f.followers, user)
}

func (f *fakeSource) Following(_ context.Context, user string) model.Result[string] {
	return lookup(f.following, user)
}

func (f *fakeSource) Repositories(_ context.Context, user string) model.Result[model.RepositoryRecord] {
	f.repoCalls[user]++
	return lookup(f.repos, user)
}

func (f *fakeSource) Starred(_ context.Context, user string) model.Result[model.RepositoryRecord] {
	return lookup(f.starred, user)
}

func (f *fakeSource) WaitQuota(context.Context) error {
	f.quotaWaits++
	for user, res := range f.afterQuotaRepos {
		f.repos[user] = res
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestFrontier_ExpandUnionsSocialGraph(t *testing.T) {
	src := newFakeSource()
	src.followers["a"] = model.CompleteResult([]string{"f1", "f2"})
	src.following["a"] = model.CompleteResult([]string{"g1"})
	src.followers["b"] = model.CompleteResult([]string{"f2", "b-only"})

	f := NewFrontier(src, testLogger(), 100)
	users, err := f.Expand(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	// Insertion order, duplicates dropped.
	assert.Equal(t, []string{"a", "f1", "f2", "g1", "b", "b-only"}, users)
}

func TestFrontier_OneBadUserDoesNotAbortExpansion(t *testing.T) {
	src := newFakeSource()
	src.followers["a"] = model.CompleteResult([]string{"fa"})
	src.followers["b"] = model.FailedResult[string](model.CauseNetwork, errors.New("connection refused"))
	src.followers["c"] = model.CompleteResult([]string{"fc"})

	f := NewFrontier(src, testLogger(), 100)
	users, err := f.Expand(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Contains(t, users, "fa")
	assert.Contains(t, users, "fc")
	assert.Contains(t, users, "b", "the failing seed itself stays in the set")
	assert.NotContains(t, users, "fb")
}

func TestFrontier_PartialSocialGraphIsKept(t *testing.T) {
	src := newFakeSource()
	src.followers["a"] = model.PartialResult([]string{"p1", "p2"}, model.CauseCap, nil)

	f := NewFrontier(src, testLogger(), 100)
	users, err := f.Expand(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "p1", "p2"}, users)
}

func TestFrontier_CapTruncatesInInsertionOrder(t *testing.T) {
	src := newFakeSource()
	src.followers["a"] = model.CompleteResult([]string{"f1", "f2", "f3", "f4"})

	f := NewFrontier(src, testLogger(), 3)
	users, err := f.Expand(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "f1", "f2"}, users)
}

func TestFrontier_RateLimitPausesAndRetries(t *testing.T) {
	src := &rateLimitedOnce{fakeSource: newFakeSource(), recovered: []string{"f1"}}

	f := NewFrontier(src, testLogger(), 100)
	users, err := f.Expand(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "f1"}, users)
}

// rateLimitedOnce wraps fakeSource so the followers fetch succeeds only
// after WaitQuota has been called.
type rateLimitedOnce struct {
	*fakeSource
	recovered []string
	waited    bool
}

func (r *rateLimitedOnce) Followers(ctx context.Context, user string) model.Result[string] {
	if !r.waited {
		return model.FailedResult[string](model.CauseRateLimit, errors.New("rate limited"))
	}
	return model.CompleteResult(r.recovered)
}

func (r *rateLimitedOnce) WaitQuota(ctx context.Context) error {
	r.waited = true
	return nil
}
