// internal/store/postgres.go
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RecandChat/CodeCompass/internal/model"
)

// PGStore is the optional Postgres sink for collected records. Dedup
// semantics match the CSV path: ON CONFLICT (github_id) DO NOTHING keeps
// the first-seen snapshot of every repository.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPGStore wraps an existing connection pool.
func NewPGStore(pool *pgxpool.Pool, logger *slog.Logger) *PGStore {
	return &PGStore{pool: pool, logger: logger}
}

const insertRecordSQL = `
INSERT INTO repositories (
	github_id, name, owner_login, owner_type, description, url, is_fork,
	date_created, date_updated, date_pushed, size_kb, stars, watchers,
	language, has_issues, has_projects, has_downloads, has_wiki, has_pages,
	has_discussions, num_forks, is_archived, is_disabled, is_template,
	license, open_issues, topics
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
	$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
)
ON CONFLICT (github_id) DO NOTHING`

// InsertRecords writes a batch of records inside one transaction and
// returns how many rows were actually inserted (duplicates excluded).
func (s *PGStore) InsertRecords(ctx context.Context, records []model.RepositoryRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op once committed.

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(insertRecordSQL,
			r.GithubID, r.Name, r.OwnerLogin, string(r.OwnerType),
			r.Description, r.URL, r.IsFork, r.DateCreated, r.DateUpdated,
			r.DatePushed, r.SizeKB, r.Stars, r.Watchers, r.Language,
			r.HasIssues, r.HasProjects, r.HasDownloads, r.HasWiki,
			r.HasPages, r.HasDiscussions, r.NumForks, r.IsArchived,
			r.IsDisabled, r.IsTemplate, r.License, r.OpenIssues, r.Topics,
		)
	}

	results := tx.SendBatch(ctx, batch)
	var inserted int64
	for range records {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return inserted, fmt.Errorf("inserting record: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return inserted, fmt.Errorf("closing batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return inserted, fmt.Errorf("committing batch: %w", err)
	}

	s.logger.Info("Records inserted into database", "batch", len(records), "inserted", inserted)
	return inserted, nil
}

// CountRepositories returns how many distinct repositories are stored.
func (s *PGStore) CountRepositories(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM repositories`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting repositories: %w", err)
	}
	return n, nil
}

// ListRepositories returns stored records ordered by stars, for the read
// API.
func (s *PGStore) ListRepositories(ctx context.Context, limit int) ([]model.RepositoryRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT github_id, name, owner_login, owner_type, description, url,
			is_fork, date_created, date_updated, date_pushed, size_kb,
			stars, watchers, language, has_issues, has_projects,
			has_downloads, has_wiki, has_pages, has_discussions, num_forks,
			is_archived, is_disabled, is_template, license, open_issues,
			topics
		FROM repositories
		ORDER BY stars DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	defer rows.Close()

	var records []model.RepositoryRecord
	for rows.Next() {
		var r model.RepositoryRecord
		var ownerType string
		err := rows.Scan(
			&r.GithubID, &r.Name, &r.OwnerLogin, &ownerType, &r.Description,
			&r.URL, &r.IsFork, &r.DateCreated, &r.DateUpdated, &r.DatePushed,
			&r.SizeKB, &r.Stars, &r.Watchers, &r.Language, &r.HasIssues,
			&r.HasProjects, &r.HasDownloads, &r.HasWiki, &r.HasPages,
			&r.HasDiscussions, &r.NumForks, &r.IsArchived, &r.IsDisabled,
			&r.IsTemplate, &r.License, &r.OpenIssues, &r.Topics,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning repository row: %w", err)
		}
		r.OwnerType = model.OwnerType(ownerType)
		records = append(records, r)
	}
	return records, rows.Err()
}
