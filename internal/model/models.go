// internal/model/models.go
package model

import "time"

// Sentinel values used when the upstream API returns null for a field.
// They are persisted literally so downstream feature-building never sees
// an empty cell.
const (
	NoDescription = "No description"
	NoLicense     = "No license"
)

// OwnerType is the GitHub account type that owns a repository.
type OwnerType string

const (
	OwnerUser         OwnerType = "User"
	OwnerOrganization OwnerType = "Organization"
)

// RepositoryRecord is one flattened snapshot of a GitHub repository, the
// row schema of every persisted dataset shard. Records are immutable after
// normalization; GithubID is the dedup key across shards.
type RepositoryRecord struct {
	GithubID    int64     `json:"id"`
	Name        string    `json:"name"`
	OwnerLogin  string    `json:"owner_login"`
	OwnerType   OwnerType `json:"owner_type"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	IsFork      bool      `json:"is_fork"`
	DateCreated time.Time `json:"date_created"`
	// DateUpdated moves on any metadata edit, pull requests included.
	// DatePushed moves only on code pushes.
	DateUpdated    time.Time `json:"date_updated"`
	DatePushed     time.Time `json:"date_pushed"`
	SizeKB         int       `json:"size"`
	Stars          int       `json:"stars"`
	Watchers       int       `json:"watchers"`
	Language       string    `json:"language"`
	HasIssues      bool      `json:"has_issues"`
	HasProjects    bool      `json:"has_projects"`
	HasDownloads   bool      `json:"has_downloads"`
	HasWiki        bool      `json:"has_wiki"`
	HasPages       bool      `json:"has_pages"`
	HasDiscussions bool      `json:"has_discussions"`
	NumForks       int       `json:"num_forks"`
	IsArchived     bool      `json:"is_archived"`
	IsDisabled     bool      `json:"is_disabled"`
	IsTemplate     bool      `json:"is_template"`
	License        string    `json:"license"`
	OpenIssues     int       `json:"open_issues"`
	Topics         []string  `json:"topics"`
}

// DedupRecords keeps the first occurrence of every GithubID, preserving
// input order. Later duplicates are dropped.
func DedupRecords(records []RepositoryRecord) []RepositoryRecord {
	seen := make(map[int64]struct{}, len(records))
	out := make([]RepositoryRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.GithubID]; ok {
			continue
		}
		seen[r.GithubID] = struct{}{}
		out = append(out, r)
	}
	return out
}
