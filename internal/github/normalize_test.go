// internal/github/normalize_test.go
package github

import (
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecandChat/CodeCompass/internal/model"
)

func ptr[T any](v T) *T { return &v }

func fullRepository() *github.Repository {
	created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	return &github.Repository{
		ID:              ptr(int64(99)),
		Name:            ptr("compass"),
		Owner:           &github.User{Login: ptr("alice"), Type: ptr("Organization")},
		Description:     ptr("a recommender"),
		HTMLURL:         ptr("https://github.com/alice/compass"),
		Fork:            ptr(true),
		CreatedAt:       &github.Timestamp{Time: created},
		UpdatedAt:       &github.Timestamp{Time: created.Add(time.Hour)},
		PushedAt:        &github.Timestamp{Time: created.Add(2 * time.Hour)},
		Size:            ptr(1234),
		StargazersCount: ptr(10),
		WatchersCount:   ptr(11),
		Language:        ptr("Go"),
		HasIssues:       ptr(true),
		HasProjects:     ptr(false),
		HasDownloads:    ptr(true),
		HasWiki:         ptr(false),
		HasPages:        ptr(true),
		HasDiscussions:  ptr(true),
		ForksCount:      ptr(3),
		Archived:        ptr(false),
		Disabled:        ptr(false),
		IsTemplate:      ptr(true),
		License:         &github.License{Name: ptr("MIT License")},
		OpenIssuesCount: ptr(7),
		Topics:          []string{"ml", "recommendations"},
	}
}

func TestNormalize_AllFields(t *testing.T) {
	rec, err := Normalize(fullRepository())
	require.NoError(t, err)

	assert.Equal(t, int64(99), rec.GithubID)
	assert.Equal(t, "compass", rec.Name)
	assert.Equal(t, "alice", rec.OwnerLogin)
	assert.Equal(t, model.OwnerOrganization, rec.OwnerType)
	assert.Equal(t, "a recommender", rec.Description)
	assert.Equal(t, "https://github.com/alice/compass", rec.URL)
	assert.True(t, rec.IsFork)
	assert.Equal(t, 1234, rec.SizeKB)
	assert.Equal(t, 10, rec.Stars)
	assert.Equal(t, 11, rec.Watchers)
	assert.Equal(t, "Go", rec.Language)
	assert.Equal(t, "MIT License", rec.License)
	assert.Equal(t, 7, rec.OpenIssues)
	assert.Equal(t, []string{"ml", "recommendations"}, rec.Topics)
	assert.True(t, rec.DateUpdated.After(rec.DateCreated))
	assert.True(t, rec.DatePushed.After(rec.DateUpdated))
}

func TestNormalize_Sentinels(t *testing.T) {
	r := fullRepository()
	r.Description = nil
	r.License = nil

	rec, err := Normalize(r)
	require.NoError(t, err)
	assert.Equal(t, model.NoDescription, rec.Description)
	assert.Equal(t, model.NoLicense, rec.License)

	// A license object with a null name also falls back to the sentinel.
	r.License = &github.License{}
	rec, err = Normalize(r)
	require.NoError(t, err)
	assert.Equal(t, model.NoLicense, rec.License)

	// An empty description string is treated like a missing one.
	r.Description = ptr("")
	rec, err = Normalize(r)
	require.NoError(t, err)
	assert.Equal(t, model.NoDescription, rec.Description)
}

func TestNormalize_MissingRequiredFields(t *testing.T) {
	var schemaErr *SchemaError

	r := fullRepository()
	r.ID = nil
	_, err := Normalize(r)
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "id", schemaErr.Field)

	r = fullRepository()
	r.Name = nil
	_, err = Normalize(r)
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "name", schemaErr.Field)

	r = fullRepository()
	r.Owner = nil
	_, err = Normalize(r)
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "owner.login", schemaErr.Field)

	_, err = Normalize(nil)
	require.ErrorAs(t, err, &schemaErr)
}
