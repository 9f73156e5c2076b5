// Package collector turns configured sources into normalized job batches.
//
// Each source type has one Collector implementation; the Orchestrator drives
// a collector through successive pages until the source is exhausted, a
// configured page cap is hit, or the provider rate-limits.
package collector

import (
	"context"
	"net/http"

	"jobradar/internal/model"
)

// Status is the termination signal a collector attaches to a batch.
type Status int

// Collection statuses.
const (
	StatusOK          Status = iota // a full page; more may follow
	StatusExhausted                 // the source is drained for this pass
	StatusRateLimited               // the provider signalled its daily quota
	StatusError                     // the fetch or parse failed
)

// String returns the status name for logs.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusExhausted:
		return "exhausted"
	case StatusRateLimited:
		return "rate-limited"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Collector fetches one batch of listings for a source. Paginated collectors
// are called with increasing page numbers starting at 1 for as long as they
// return StatusOK; single-shot collectors return StatusExhausted on the
// first call. The query argument carries the rotation keyword and is only
// meaningful for search-API sources.
type Collector interface {
	Collect(ctx context.Context, src model.Source, query string, page int) ([]model.Job, Status, error)
}

// QuotaBound reports whether requests to the source type count against a
// provider's daily limit.
func QuotaBound(t model.SourceType) bool {
	return t == model.SourceAPI
}

// NewRegistry builds the static dispatch table from source type to collector.
func NewRegistry(appID, appKey, country string, client HTTPClient) map[model.SourceType]Collector {
	return map[model.SourceType]Collector{
		model.SourceAPI:  NewAPICollector(appID, appKey, country, client),
		model.SourceFeed: NewFeedCollector(client),
		model.SourcePage: NewPageCollector(client),
	}
}

// sourceName labels collected jobs with the configured display name,
// falling back to the query/URL for unnamed sources.
func sourceName(src model.Source) string {
	if src.Name != "" {
		return src.Name
	}
	return src.Query
}
