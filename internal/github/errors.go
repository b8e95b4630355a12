// internal/github/errors.go
package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v62/github"

	"github.com/RecandChat/CodeCompass/internal/model"
)

// SchemaError indicates a repository item from the API is missing a field
// the record schema requires. It signals an upstream contract change, so it
// is logged loudly, but a single malformed item never aborts a batch.
type SchemaError struct {
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("repository item missing required field %q", e.Field)
}

// classify maps an error from a page fetch onto the result cause taxonomy.
// GitHub reports both "not found" and "rate limited" as HTTP errors; they
// are told apart here by status code, not by error type.
func classify(err error) model.Cause {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return model.CauseRateLimit
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return model.CauseRateLimit
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return model.CauseNotFound
		case http.StatusForbidden, http.StatusTooManyRequests:
			return model.CauseRateLimit
		default:
			return model.CauseHTTP
		}
	}

	// Anything go-github did not shape into an ErrorResponse is a
	// transport-level failure (DNS, refused connection, timeout).
	return model.CauseNetwork
}
