// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"jobradar/internal/model"
)

// UpsertStats summarizes one commit of a listing batch.
type UpsertStats struct {
	Created int // inserted as new rows
	Updated int // existing rows refreshed in place
	Skipped int // failed validation, never written
	Failed  int // write error, row left untouched
}

// Total returns the number of records that reached storage.
func (s UpsertStats) Total() int {
	return s.Created + s.Updated
}

// JobQuery selects and pages active jobs for the read side.
type JobQuery struct {
	Search   string // matches title, company, or description
	Location string
	Level    string
	Page     int
	PerPage  int
}

// Storage is the interface for all persistence operations.
type Storage interface {
	// UpsertJobs commits a batch with at-most-one-row-per-URL semantics.
	// Each record is written in its own transaction; per-record failures
	// are counted in the returned stats, not propagated.
	UpsertJobs(ctx context.Context, jobs []model.Job) (UpsertStats, error)
	ListJobs(ctx context.Context, q JobQuery) ([]model.Job, int, error)
	CountActiveJobs(ctx context.Context) (int, error)
	CountCompanies(ctx context.Context) (int, error)
	DeactivateStale(ctx context.Context, olderThan time.Time) (int64, error)

	CreateSource(ctx context.Context, src *model.Source) error
	ListActiveSources(ctx context.Context) ([]model.Source, error)
	DeactivateSource(ctx context.Context, id int64) (bool, error)

	GetRefreshState(ctx context.Context) (*model.RefreshState, error)
	SaveRefreshState(ctx context.Context, state *model.RefreshState) error

	Close() error
}
