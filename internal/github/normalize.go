// internal/github/normalize.go
package github

import (
	"github.com/google/go-github/v62/github"

	"github.com/RecandChat/CodeCompass/internal/model"
)

// Normalize flattens a raw API repository into the canonical record schema.
// It is a pure translation: no I/O, no mutation of the input. A missing
// identity field returns a *SchemaError; nullable descriptive fields are
// coalesced to their sentinel values instead.
func Normalize(r *github.Repository) (model.RepositoryRecord, error) {
	if r == nil || r.ID == nil {
		return model.RepositoryRecord{}, &SchemaError{Field: "id"}
	}
	if r.Name == nil {
		return model.RepositoryRecord{}, &SchemaError{Field: "name"}
	}
	if r.Owner == nil || r.Owner.Login == nil {
		return model.RepositoryRecord{}, &SchemaError{Field: "owner.login"}
	}

	description := model.NoDescription
	if r.Description != nil && *r.Description != "" {
		description = *r.Description
	}

	license := model.NoLicense
	if r.License != nil && r.License.Name != nil {
		license = *r.License.Name
	}

	return model.RepositoryRecord{
		GithubID:       *r.ID,
		Name:           *r.Name,
		OwnerLogin:     *r.Owner.Login,
		OwnerType:      model.OwnerType(r.Owner.GetType()),
		Description:    description,
		URL:            r.GetHTMLURL(),
		IsFork:         r.GetFork(),
		DateCreated:    r.GetCreatedAt().Time,
		DateUpdated:    r.GetUpdatedAt().Time,
		DatePushed:     r.GetPushedAt().Time,
		SizeKB:         r.GetSize(),
		Stars:          r.GetStargazersCount(),
		Watchers:       r.GetWatchersCount(),
		Language:       r.GetLanguage(),
		HasIssues:      r.GetHasIssues(),
		HasProjects:    r.GetHasProjects(),
		HasDownloads:   r.GetHasDownloads(),
		HasWiki:        r.GetHasWiki(),
		HasPages:       r.GetHasPages(),
		HasDiscussions: r.GetHasDiscussions(),
		NumForks:       r.GetForksCount(),
		IsArchived:     r.GetArchived(),
		IsDisabled:     r.GetDisabled(),
		IsTemplate:     r.GetIsTemplate(),
		License:        license,
		OpenIssues:     r.GetOpenIssuesCount(),
		Topics:         r.Topics,
	}, nil
}
