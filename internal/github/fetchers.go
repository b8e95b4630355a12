// internal/github/fetchers.go
package github

import (
	"context"
	"log/slog"

	"github.com/google/go-github/v62/github"

	"github.com/RecandChat/CodeCompass/internal/model"
)

// NotableUsersQuery selects the seed users that bootstrap graph expansion:
// accounts with both a large following and a large repository count.
const NotableUsersQuery = "repos:>1000 followers:>1000"

// pageFunc fetches one page of items. The returned response carries the
// next-page cursor parsed from the Link header by go-github.
type pageFunc[T any] func(ctx context.Context, page int) ([]T, *github.Response, error)

// paginate exhaustively walks a collection endpoint. Termination:
//   - no next-page cursor, or
//   - a short page (the API occasionally emits a spurious next link on the
//     final page; a page smaller than perPage is trusted over the cursor), or
//   - the accumulated item count exceeds cap (checked between pages, so the
//     result holds at most cap+perPage items and is tagged Partial/Cap).
//
// Any page error preserves the items accumulated so far: the result is
// Partial when something was fetched, Failed otherwise.
func paginate[T any](ctx context.Context, c *Client, perPage, itemCap int, fn pageFunc[T]) model.Result[T] {
	var items []T
	page := 0

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			if len(items) > 0 {
				return model.PartialResult(items, model.CauseNetwork, err)
			}
			return model.FailedResult[T](model.CauseNetwork, err)
		}

		pageItems, resp, err := fn(ctx, page)
		c.updateRateLimit(resp)
		if err != nil {
			cause := classify(err)
			if len(items) > 0 {
				return model.PartialResult(items, cause, err)
			}
			return model.FailedResult[T](cause, err)
		}

		items = append(items, pageItems...)

		if len(items) > itemCap {
			return model.PartialResult(items, model.CauseCap, nil)
		}
		if resp == nil || resp.NextPage == 0 || len(pageItems) < perPage {
			return model.CompleteResult(items)
		}
		page = resp.NextPage
	}
}

// normalizeAll translates raw repositories into records, skipping malformed
// items with a logged warning. A schema error marks an upstream contract
// change but must not poison the rest of the batch.
func normalizeAll(logger *slog.Logger, repos []*github.Repository) []model.RepositoryRecord {
	records := make([]model.RepositoryRecord, 0, len(repos))
	for _, r := range repos {
		record, err := Normalize(r)
		if err != nil {
			logger.Warn("Skipping malformed repository item", "error", err)
			continue
		}
		records = append(records, record)
	}
	return records
}

// SearchNotableUsers returns up to n logins matching the notable-users
// query.
func (c *Client) SearchNotableUsers(ctx context.Context, n int) model.Result[string] {
	perPage := c.pageSize
	if n < perPage {
		perPage = n
	}

	res := paginate(ctx, c, perPage, n, func(ctx context.Context, page int) ([]*github.User, *github.Response, error) {
		opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: perPage, Page: page}}
		result, resp, err := c.gh.Search.Users(ctx, NotableUsersQuery, opts)
		if err != nil {
			return nil, resp, err
		}
		return result.Users, resp, nil
	})

	logins := make([]string, 0, len(res.Items))
	for _, u := range res.Items {
		if u.Login != nil {
			logins = append(logins, *u.Login)
		}
	}
	if len(logins) > n {
		logins = logins[:n]
	}
	return model.Result[string]{Items: logins, Outcome: res.Outcome, Cause: res.Cause, Err: res.Err}
}

// Followers returns the logins following the given user.
func (c *Client) Followers(ctx context.Context, user string) model.Result[string] {
	return c.listUsers(ctx, user, c.gh.Users.ListFollowers)
}

// Following returns the logins the given user follows.
func (c *Client) Following(ctx context.Context, user string) model.Result[string] {
	return c.listUsers(ctx, user, c.gh.Users.ListFollowing)
}

func (c *Client) listUsers(
	ctx context.Context, user string,
	list func(context.Context, string, *github.ListOptions) ([]*github.User, *github.Response, error),
) model.Result[string] {
	res := paginate(ctx, c, c.pageSize, c.followerCap, func(ctx context.Context, page int) ([]*github.User, *github.Response, error) {
		return list(ctx, user, &github.ListOptions{PerPage: c.pageSize, Page: page})
	})

	logins := make([]string, 0, len(res.Items))
	for _, u := range res.Items {
		if u.Login != nil {
			logins = append(logins, *u.Login)
		}
	}
	return model.Result[string]{Items: logins, Outcome: res.Outcome, Cause: res.Cause, Err: res.Err}
}

// Repositories returns the normalized repositories owned by the given user.
func (c *Client) Repositories(ctx context.Context, user string) model.Result[model.RepositoryRecord] {
	res := paginate(ctx, c, c.pageSize, c.repoCap, func(ctx context.Context, page int) ([]*github.Repository, *github.Response, error) {
		opts := &github.RepositoryListByUserOptions{
			ListOptions: github.ListOptions{PerPage: c.pageSize, Page: page},
		}
		return c.gh.Repositories.ListByUser(ctx, user, opts)
	})
	return model.Result[model.RepositoryRecord]{
		Items:   normalizeAll(c.logger.With("user", user), res.Items),
		Outcome: res.Outcome,
		Cause:   res.Cause,
		Err:     res.Err,
	}
}

// Starred returns the normalized repositories the given user has starred.
func (c *Client) Starred(ctx context.Context, user string) model.Result[model.RepositoryRecord] {
	res := paginate(ctx, c, c.starredPageSize, c.starredCap, func(ctx context.Context, page int) ([]*github.Repository, *github.Response, error) {
		opts := &github.ActivityListStarredOptions{
			ListOptions: github.ListOptions{PerPage: c.starredPageSize, Page: page},
		}
		starred, resp, err := c.gh.Activity.ListStarred(ctx, user, opts)
		if err != nil {
			return nil, resp, err
		}
		repos := make([]*github.Repository, 0, len(starred))
		for _, s := range starred {
			if s.Repository != nil {
				repos = append(repos, s.Repository)
			}
		}
		return repos, resp, nil
	})
	return model.Result[model.RepositoryRecord]{
		Items:   normalizeAll(c.logger.With("user", user), res.Items),
		Outcome: res.Outcome,
		Cause:   res.Cause,
		Err:     res.Err,
	}
}

// SearchRepositories returns up to n normalized repositories matching the
// given search query.
func (c *Client) SearchRepositories(ctx context.Context, query string, n int) model.Result[model.RepositoryRecord] {
	perPage := c.pageSize
	if n < perPage {
		perPage = n
	}

	res := paginate(ctx, c, perPage, n, func(ctx context.Context, page int) ([]*github.Repository, *github.Response, error) {
		opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: perPage, Page: page}}
		result, resp, err := c.gh.Search.Repositories(ctx, query, opts)
		if err != nil {
			return nil, resp, err
		}
		return result.Repositories, resp, nil
	})

	records := normalizeAll(c.logger.With("query", query), res.Items)
	if len(records) > n {
		records = records[:n]
	}
	return model.Result[model.RepositoryRecord]{
		Items:   records,
		Outcome: res.Outcome,
		Cause:   res.Cause,
		Err:     res.Err,
	}
}
