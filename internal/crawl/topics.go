// internal/crawl/topics.go
package crawl

import (
	"context"
	"fmt"

	"github.com/RecandChat/CodeCompass/internal/model"
)

// Languages queried by the topic collection mode.
var Languages = []string{
	"Python", "Java", "Go", "JavaScript", "C++", "TypeScript", "PHP", "C",
	"Ruby", "C#", "Nix", "Shell", "Rust", "Scala", "Kotlin", "Swift",
}

// Topics queried by the topic collection mode.
var Topics = []string{
	"machine-learning", "deep-learning", "data-science",
	"artificial-intelligence", "neural-networks", "computer-vision",
	"natural-language-processing", "reinforcement-learning", "data-mining",
	"big-data", "data-analysis", "data-visualization", "data-engineering",
}

// topicFields are the search qualifiers combined with each topic.
var topicFields = []string{"in:name", "in:description", "in:readme"}

// searchResultCap bounds each individual search query.
const searchResultCap = 100

// TopicQueries builds the language and topic query matrix for the
// repository search endpoint.
func TopicQueries() []string {
	queries := make([]string, 0, len(Languages)+len(Topics)*len(topicFields))
	for _, lang := range Languages {
		queries = append(queries, fmt.Sprintf("language:%s", lang))
	}
	for _, field := range topicFields {
		for _, topic := range Topics {
			queries = append(queries, fmt.Sprintf("%s %s", topic, field))
		}
	}
	return queries
}

// CollectTopics harvests repositories matching the language/topic query
// matrix into a single deduplicated dataset file. A failed query is logged
// and skipped; the matrix keeps going.
func (c *Collector) CollectTopics(ctx context.Context) error {
	c.status.setPhase("searching")

	var records []model.RepositoryRecord
	for _, query := range TopicQueries() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		res := c.src.SearchRepositories(ctx, query, searchResultCap)
		if res.RateLimited() {
			c.logger.Warn("Rate limited, pausing run", "query", query)
			if err := c.src.WaitQuota(ctx); err != nil {
				return err
			}
			res = c.src.SearchRepositories(ctx, query, searchResultCap)
		}
		if !res.OK() {
			c.logger.Warn("Search query failed", "query", query, "cause", res.Cause.String(), "error", res.Err)
			continue
		}
		records = append(records, res.Items...)
	}

	c.status.setPhase("persisting")
	records = model.DedupRecords(records)
	if _, err := c.shards.WriteDataset("miscData.csv", records); err != nil {
		return err
	}
	if err := c.sinkRecords(ctx, records); err != nil {
		return err
	}

	c.status.setPhase("done")
	return nil
}
