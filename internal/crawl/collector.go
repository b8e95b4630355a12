// internal/crawl/collector.go
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RecandChat/CodeCompass/internal/model"
	"github.com/RecandChat/CodeCompass/internal/store"
)

// RecordSink receives every deduplicated batch, in addition to the CSV
// shards. The Postgres store implements it; a nil sink disables it.
type RecordSink interface {
	InsertRecords(ctx context.Context, records []model.RepositoryRecord) (int64, error)
}

// Options are the collection knobs, lifted from config so the collector
// has no dependency on how configuration is loaded.
type Options struct {
	SeedUserCount  int
	MaxUsers       int
	BatchSize      int
	MaxShards      int
	IncludeStarred bool
}

// Collector orchestrates the whole pipeline: seed discovery, frontier
// expansion, per-user repository fetches, first-wins deduplication, and
// persistence. Fetches run strictly sequentially; the client's rate limiter
// is the only throttle.
type Collector struct {
	src        Source
	shards     *store.ShardStore
	checkpoint *store.Checkpoint
	sink       RecordSink
	logger     *slog.Logger
	status     *Status
	opts       Options
}

// NewCollector wires a collector. sink may be nil.
func NewCollector(
	src Source,
	shards *store.ShardStore,
	checkpoint *store.Checkpoint,
	sink RecordSink,
	logger *slog.Logger,
	status *Status,
	opts Options,
) *Collector {
	return &Collector{
		src:        src,
		shards:     shards,
		checkpoint: checkpoint,
		sink:       sink,
		logger:     logger,
		status:     status,
		opts:       opts,
	}
}

// Collect runs the full social-graph collection: search notable users,
// expand the frontier, fetch every user's repositories, and persist one
// deduplicated shard plus the checkpoint.
func (c *Collector) Collect(ctx context.Context) error {
	c.status.setPhase("seeding")
	seeds := c.src.SearchNotableUsers(ctx, c.opts.SeedUserCount)
	if !seeds.OK() {
		return fmt.Errorf("searching seed users: %w", seeds.Err)
	}
	c.logger.Info("Seed users discovered", "count", len(seeds.Items))

	c.status.setPhase("expanding")
	frontier := NewFrontier(c.src, c.logger, c.opts.MaxUsers)
	users, err := frontier.Expand(ctx, seeds.Items)
	if err != nil {
		return fmt.Errorf("expanding frontier: %w", err)
	}
	c.logger.Info("Frontier expanded", "users", len(users))
	c.status.setTotalUsers(len(users))

	c.status.setPhase("fetching")
	var records []model.RepositoryRecord
	done := make([]string, 0, len(users))
	for _, user := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		recs, ok := c.fetchUserRecords(ctx, user)
		records = append(records, recs...)
		if ok {
			done = append(done, user)
		}
		c.status.addProcessed(1)
	}

	c.status.setPhase("persisting")
	if err := c.persistBatch(ctx, done, records); err != nil {
		return err
	}

	c.status.setPhase("done")
	return nil
}

// BuildDataset runs the resumable incremental build: the candidate user
// list minus the checkpoint is processed in batches, each batch producing
// one immutable shard and one atomic checkpoint append. The run stops on
// list exhaustion, a short batch, or the shard ceiling. Interrupted
// batches lose only their in-flight work; checkpointed users are never
// reprocessed.
func (c *Collector) BuildDataset(ctx context.Context, userListPath string) error {
	candidates, err := store.LoadUserList(userListPath)
	if err != nil {
		return err
	}
	c.status.setTotalUsers(len(candidates))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		processed, err := c.checkpoint.LoadSet()
		if err != nil {
			return err
		}

		batch := nextBatch(candidates, processed, c.opts.BatchSize)
		if len(batch) == 0 {
			c.logger.Info("No unprocessed users remain", "processed", len(processed))
			c.status.setPhase("done")
			return nil
		}

		index, err := c.shards.NextIndex()
		if err != nil {
			return err
		}
		if index > c.opts.MaxShards {
			c.logger.Info("Shard ceiling reached", "ceiling", c.opts.MaxShards)
			c.status.setPhase("done")
			return nil
		}

		c.status.setPhase("fetching")
		var records []model.RepositoryRecord
		done := make([]string, 0, len(batch))
		for _, user := range batch {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			recs, ok := c.fetchUserRecords(ctx, user)
			records = append(records, recs...)
			if ok {
				done = append(done, user)
			}
			c.status.addProcessed(1)
		}
		if len(done) == 0 {
			return fmt.Errorf("no user in a batch of %d completed", len(batch))
		}

		c.status.setPhase("persisting")
		records = model.DedupRecords(records)
		if _, err := c.shards.WriteShard(index, records); err != nil {
			return err
		}
		c.status.addShard(len(records))

		// The checkpoint is written only after the shard landed, so a
		// crash between the two redoes the batch instead of losing it.
		// Users that stayed rate-limited are not in it and get retried.
		if err := c.checkpoint.Append(done); err != nil {
			return err
		}
		if err := c.sinkRecords(ctx, records); err != nil {
			return err
		}

		if len(batch) < c.opts.BatchSize {
			c.logger.Info("Candidate list exhausted", "last_batch", len(batch))
			c.status.setPhase("done")
			return nil
		}
	}
}

// fetchUserRecords fetches one user's repositories (and optionally starred
// repositories) with the shared failure policy: pause and retry once on
// rate limiting, keep partial results, log and move on otherwise. The
// returned flag reports whether the user counts as processed; a fetch that
// is still rate-limited after the pause leaves the user unprocessed so a
// later run retries them.
func (c *Collector) fetchUserRecords(ctx context.Context, user string) ([]model.RepositoryRecord, bool) {
	records, done := c.fetchWithPolicy(ctx, user, c.src.Repositories)
	if c.opts.IncludeStarred {
		starred, starredDone := c.fetchWithPolicy(ctx, user, c.src.Starred)
		records = append(records, starred...)
		done = done && starredDone
	}
	return records, done
}

func (c *Collector) fetchWithPolicy(
	ctx context.Context, user string,
	fetch func(context.Context, string) model.Result[model.RepositoryRecord],
) ([]model.RepositoryRecord, bool) {
	res := fetch(ctx, user)
	if res.RateLimited() {
		c.logger.Warn("Rate limited, pausing run", "user", user)
		if err := c.src.WaitQuota(ctx); err != nil {
			return res.Items, false
		}
		res = fetch(ctx, user)
	}
	if res.RateLimited() {
		c.logger.Warn("Still rate limited after pause, leaving user unprocessed", "user", user)
		return res.Items, false
	}

	switch res.Outcome {
	case model.Failed:
		if res.Cause == model.CauseNotFound {
			c.logger.Info("User not found", "user", user)
		} else {
			c.logger.Warn("Fetch failed for user", "user", user, "cause", res.Cause.String(), "error", res.Err)
		}
	case model.Partial:
		c.logger.Debug("Partial fetch for user", "user", user, "cause", res.Cause.String(), "items", len(res.Items))
	}
	return res.Items, true
}

func (c *Collector) persistBatch(ctx context.Context, users []string, records []model.RepositoryRecord) error {
	records = model.DedupRecords(records)

	index, err := c.shards.NextIndex()
	if err != nil {
		return err
	}
	if _, err := c.shards.WriteShard(index, records); err != nil {
		return err
	}
	c.status.addShard(len(records))

	if err := c.checkpoint.Append(users); err != nil {
		return err
	}
	return c.sinkRecords(ctx, records)
}

func (c *Collector) sinkRecords(ctx context.Context, records []model.RepositoryRecord) error {
	if c.sink == nil || len(records) == 0 {
		return nil
	}
	if _, err := c.sink.InsertRecords(ctx, records); err != nil {
		// The CSV shard is already durable; a sink failure should not
		// undo the batch. Log and continue unless the context died.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		c.logger.Error("Sink insert failed", "error", err)
	}
	return nil
}

// nextBatch returns the first size candidates not yet processed, in list
// order.
func nextBatch(candidates []string, processed map[string]struct{}, size int) []string {
	var batch []string
	for _, user := range candidates {
		if _, ok := processed[user]; ok {
			continue
		}
		batch = append(batch, user)
		if len(batch) == size {
			break
		}
	}
	return batch
}
