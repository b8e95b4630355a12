// internal/store/csv.go
package store

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/RecandChat/CodeCompass/internal/model"
)

// topicSeparator joins the ordered topic tags into a single CSV cell.
const topicSeparator = ";"

var shardPattern = regexp.MustCompile(`^dataset(\d+)\.csv$`)

var csvHeader = []string{
	"id", "name", "owner_login", "owner_type", "description", "url",
	"is_fork", "date_created", "date_updated", "date_pushed", "size",
	"stars", "watchers", "language", "has_issues", "has_projects",
	"has_downloads", "has_wiki", "has_pages", "has_discussions",
	"num_forks", "is_archived", "is_disabled", "is_template", "license",
	"open_issues", "topics",
}

// Shard is one persisted dataset file.
type Shard struct {
	Index int
	Path  string
}

// ShardStore persists repository records as numbered CSV shards under a
// single directory. Shards are immutable once written; files land via
// write-to-temp-then-rename so a crash mid-write never leaves a truncated
// shard behind.
type ShardStore struct {
	dir    string
	logger *slog.Logger
}

// NewShardStore creates the shard directory if needed.
func NewShardStore(dir string, logger *slog.Logger) (*ShardStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating shard directory: %w", err)
	}
	return &ShardStore{dir: dir, logger: logger}, nil
}

// Dir returns the shard directory.
func (s *ShardStore) Dir() string {
	return s.dir
}

// NextIndex returns the lowest shard index not yet written, starting at 1.
func (s *ShardStore) NextIndex() (int, error) {
	shards, err := s.Shards()
	if err != nil {
		return 0, err
	}
	taken := make(map[int]struct{}, len(shards))
	for _, sh := range shards {
		taken[sh.Index] = struct{}{}
	}
	for i := 1; ; i++ {
		if _, ok := taken[i]; !ok {
			return i, nil
		}
	}
}

// Shards lists the existing shard files in ascending index order.
func (s *ShardStore) Shards() ([]Shard, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing shard directory: %w", err)
	}

	var shards []Shard
	for _, e := range entries {
		m := shardPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		shards = append(shards, Shard{Index: idx, Path: filepath.Join(s.dir, e.Name())})
	}
	sort.Slice(shards, func(i, j int) bool { return shards[i].Index < shards[j].Index })
	return shards, nil
}

// WriteShard persists one batch of records as dataset{index}.csv and
// returns the file path.
func (s *ShardStore) WriteShard(index int, records []model.RepositoryRecord) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("dataset%d.csv", index))
	if err := s.writeRecords(path, records); err != nil {
		return "", err
	}
	s.logger.Info("Shard written", "path", path, "records", len(records))
	return path, nil
}

// WriteDataset persists records under an arbitrary file name in the shard
// directory, for datasets outside the numbered sequence.
func (s *ShardStore) WriteDataset(name string, records []model.RepositoryRecord) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := s.writeRecords(path, records); err != nil {
		return "", err
	}
	s.logger.Info("Dataset written", "path", path, "records", len(records))
	return path, nil
}

func (s *ShardStore) writeRecords(path string, records []model.RepositoryRecord) error {
	tmp, err := os.CreateTemp(s.dir, ".shard-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp shard: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("writing shard header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(encodeRecord(r)); err != nil {
			tmp.Close()
			return fmt.Errorf("writing shard row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing shard: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp shard: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming shard into place: %w", err)
	}
	return nil
}

// ReadShard loads all records from one shard file.
func (s *ShardStore) ReadShard(path string) ([]model.RepositoryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shard: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading shard %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]model.RepositoryRecord, 0, len(rows)-1)
	for _, row := range rows[1:] { // skip header
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("decoding row in %s: %w", path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// MergeShards reads every shard in index order and returns one dataset
// deduplicated by repository id, first occurrence winning.
func (s *ShardStore) MergeShards() ([]model.RepositoryRecord, error) {
	shards, err := s.Shards()
	if err != nil {
		return nil, err
	}

	var all []model.RepositoryRecord
	for _, sh := range shards {
		records, err := s.ReadShard(sh.Path)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return model.DedupRecords(all), nil
}

func encodeRecord(r model.RepositoryRecord) []string {
	return []string{
		strconv.FormatInt(r.GithubID, 10),
		r.Name,
		r.OwnerLogin,
		string(r.OwnerType),
		r.Description,
		r.URL,
		strconv.FormatBool(r.IsFork),
		r.DateCreated.UTC().Format(time.RFC3339),
		r.DateUpdated.UTC().Format(time.RFC3339),
		r.DatePushed.UTC().Format(time.RFC3339),
		strconv.Itoa(r.SizeKB),
		strconv.Itoa(r.Stars),
		strconv.Itoa(r.Watchers),
		r.Language,
		strconv.FormatBool(r.HasIssues),
		strconv.FormatBool(r.HasProjects),
		strconv.FormatBool(r.HasDownloads),
		strconv.FormatBool(r.HasWiki),
		strconv.FormatBool(r.HasPages),
		strconv.FormatBool(r.HasDiscussions),
		strconv.Itoa(r.NumForks),
		strconv.FormatBool(r.IsArchived),
		strconv.FormatBool(r.IsDisabled),
		strconv.FormatBool(r.IsTemplate),
		r.License,
		strconv.Itoa(r.OpenIssues),
		strings.Join(r.Topics, topicSeparator),
	}
}

func decodeRecord(row []string) (model.RepositoryRecord, error) {
	if len(row) != len(csvHeader) {
		return model.RepositoryRecord{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
	}

	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return model.RepositoryRecord{}, fmt.Errorf("parsing id: %w", err)
	}

	parseTime := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	parseBool := func(s string) bool {
		b, _ := strconv.ParseBool(s)
		return b
	}
	parseInt := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}

	var topics []string
	if row[26] != "" {
		topics = strings.Split(row[26], topicSeparator)
	}

	return model.RepositoryRecord{
		GithubID:       id,
		Name:           row[1],
		OwnerLogin:     row[2],
		OwnerType:      model.OwnerType(row[3]),
		Description:    row[4],
		URL:            row[5],
		IsFork:         parseBool(row[6]),
		DateCreated:    parseTime(row[7]),
		DateUpdated:    parseTime(row[8]),
		DatePushed:     parseTime(row[9]),
		SizeKB:         parseInt(row[10]),
		Stars:          parseInt(row[11]),
		Watchers:       parseInt(row[12]),
		Language:       row[13],
		HasIssues:      parseBool(row[14]),
		HasProjects:    parseBool(row[15]),
		HasDownloads:   parseBool(row[16]),
		HasWiki:        parseBool(row[17]),
		HasPages:       parseBool(row[18]),
		HasDiscussions: parseBool(row[19]),
		NumForks:       parseInt(row[20]),
		IsArchived:     parseBool(row[21]),
		IsDisabled:     parseBool(row[22]),
		IsTemplate:     parseBool(row[23]),
		License:        row[24],
		OpenIssues:     parseInt(row[25]),
		Topics:         topics,
	}, nil
}
