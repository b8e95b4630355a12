// internal/model/result.go
package model

import "fmt"

// Outcome classifies how a paginated fetch ended.
type Outcome int

const (
	// Complete means every available item was fetched.
	Complete Outcome = iota
	// Partial means the fetch stopped early but the accumulated items are
	// valid. The Cause says whether it was the item cap, a rate limit, or
	// a mid-pagination error.
	Partial
	// Failed means nothing usable was fetched.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Complete:
		return "complete"
	case Partial:
		return "partial"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Cause names why a fetch did not complete.
type Cause int

const (
	CauseNone Cause = iota
	// CauseCap is a policy stop, not an error: the configured item cap was
	// reached between pages.
	CauseCap
	CauseRateLimit
	CauseNotFound
	CauseHTTP
	CauseNetwork
)

func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseCap:
		return "cap"
	case CauseRateLimit:
		return "rate_limit"
	case CauseNotFound:
		return "not_found"
	case CauseHTTP:
		return "http"
	case CauseNetwork:
		return "network"
	default:
		return fmt.Sprintf("cause(%d)", int(c))
	}
}

// Result is the tagged outcome of a paginated fetch. It replaces the
// ambiguous (items, bool) shape: callers branch on Outcome instead of
// guessing from list length, and Partial results always carry whatever
// was accumulated before the stop.
type Result[T any] struct {
	Items   []T
	Outcome Outcome
	Cause   Cause
	Err     error
}

// CompleteResult wraps a fully fetched item list.
func CompleteResult[T any](items []T) Result[T] {
	return Result[T]{Items: items, Outcome: Complete}
}

// PartialResult wraps an early-stopped fetch together with its cause.
func PartialResult[T any](items []T, cause Cause, err error) Result[T] {
	return Result[T]{Items: items, Outcome: Partial, Cause: cause, Err: err}
}

// FailedResult wraps a fetch that produced nothing usable.
func FailedResult[T any](cause Cause, err error) Result[T] {
	return Result[T]{Outcome: Failed, Cause: cause, Err: err}
}

// OK reports whether the result carries usable items (Complete or Partial).
func (r Result[T]) OK() bool {
	return r.Outcome != Failed
}

// RateLimited reports whether the fetch stopped because of API rate limiting.
func (r Result[T]) RateLimited() bool {
	return r.Cause == CauseRateLimit
}
