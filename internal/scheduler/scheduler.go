// Package scheduler serializes collection passes and drives the recurring cadence.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"jobradar/internal/collector"
	"jobradar/internal/model"
	"jobradar/internal/storage"
)

// Config holds the collection cadence and keyword rotation settings.
type Config struct {
	Interval     time.Duration // pass cadence; defaults to one hour
	Keywords     []string      // rotation keyword list
	Rotation     bool          // rotate through Keywords, one per pass
	DefaultQuery string        // query used when rotation is disabled
}

// Scheduler owns the recurring collection loop. All passes run on the
// goroutine inside Run, so they can never overlap: the timer and the manual
// trigger both feed the same loop.
type Scheduler struct {
	store   storage.Storage
	orch    *collector.Orchestrator
	cfg     Config
	log     *slog.Logger
	trigger chan struct{}

	now func() time.Time // injectable clock for tests
}

// New creates a Scheduler. A zero Interval falls back to one hour.
func New(store storage.Storage, orch *collector.Orchestrator, cfg Config, log *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Scheduler{
		store:   store,
		orch:    orch,
		cfg:     cfg,
		log:     log,
		trigger: make(chan struct{}, 1),
		now:     time.Now,
	}
}

// TriggerNow requests an out-of-band pass and returns immediately. The
// capacity-1 channel is the single-flight guard: false means a pass is
// already running or pending and the request was dropped.
func (s *Scheduler) TriggerNow() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run executes an immediate pass, then serves the ticker and manual
// triggers until ctx is cancelled. An in-flight pass finishes before Run
// returns; a new one is never started after cancellation.
func (s *Scheduler) Run(ctx context.Context) {
	s.runPass(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runPass(ctx)
		case <-s.trigger:
			s.runPass(ctx)
		}
	}
}

// runPass executes one collection pass across all active sources. It is the
// outermost error boundary: no source failure escapes it.
func (s *Scheduler) runPass(ctx context.Context) {
	started := s.now()

	state, err := s.store.GetRefreshState(ctx)
	if err != nil {
		s.log.Error("load refresh state", "error", err)
		return
	}

	if state.ResetQuotaIfNewDay(started) {
		s.log.Info("daily quota reset")
	}

	if state.QuotaExhausted {
		s.log.Info("quota exhausted for today, skipping collection")
		s.refreshCounts(ctx, state)
		s.saveState(ctx, state)
		return
	}

	query := s.cfg.DefaultQuery
	if s.cfg.Rotation && len(s.cfg.Keywords) > 0 {
		query = state.Keyword(s.cfg.Keywords)
	}

	sources, err := s.store.ListActiveSources(ctx)
	if err != nil {
		s.log.Error("list sources", "error", err)
		return
	}

	s.log.Info("pass started", "query", query, "sources", len(sources))

	rateLimited := false
	collected := 0
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		if rateLimited && collector.QuotaBound(src.Type) {
			s.log.Info("skipping quota-bound source for the rest of the pass",
				"source_id", src.ID, "type", src.Type)
			continue
		}

		q := ""
		if src.Type == model.SourceAPI {
			q = query
		}
		res := s.orch.Run(ctx, src, q)

		if len(res.Jobs) > 0 {
			stats, err := s.store.UpsertJobs(ctx, res.Jobs)
			if err != nil {
				s.log.Error("commit batch", "source_id", src.ID, "error", err)
			} else {
				collected += stats.Total()
				s.log.Info("committed listings", "source_id", src.ID, "pages", res.Pages,
					"created", stats.Created, "updated", stats.Updated,
					"skipped", stats.Skipped, "failed", stats.Failed)
			}
		}

		switch res.Status {
		case collector.StatusRateLimited:
			rateLimited = true
			s.log.Warn("source rate-limited, daily quota spent",
				"source_id", src.ID, "pages", res.Pages)
		case collector.StatusError:
			s.log.Error("source failed", "source_id", src.ID, "type", src.Type, "error", res.Err)
		}
	}

	if rateLimited {
		state.MarkQuotaExhausted(started)
	}
	if s.cfg.Rotation && len(s.cfg.Keywords) > 0 {
		state.AdvanceRotation(len(s.cfg.Keywords))
	}
	finished := s.now().UTC()
	state.LastRefreshAt = &finished
	state.SourcesCount = len(sources)
	if n, err := s.store.CountActiveJobs(ctx); err != nil {
		s.log.Error("count jobs", "error", err)
	} else {
		state.JobsCount = n
	}
	s.saveState(ctx, state)

	s.log.Info("pass complete", "query", query, "collected", collected,
		"quota_exhausted", state.QuotaExhausted, "cursor", state.RotationCursor,
		"elapsed", s.now().Sub(started).Round(time.Millisecond))
}

// Snapshot returns the current status view for the API layer, applying the
// lazy daily quota reset on read like every other access to the state row.
func (s *Scheduler) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	state, err := s.store.GetRefreshState(ctx)
	if err != nil {
		return nil, err
	}
	if state.ResetQuotaIfNewDay(s.now()) {
		s.saveState(ctx, state)
	}
	companies, err := s.store.CountCompanies(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Snapshot{
		LastRefreshAt:    state.LastRefreshAt,
		JobsCount:        state.JobsCount,
		SourcesCount:     state.SourcesCount,
		CompaniesCount:   companies,
		QuotaExhausted:   state.QuotaExhausted,
		QuotaExhaustedOn: state.QuotaExhaustedOn,
	}, nil
}

func (s *Scheduler) refreshCounts(ctx context.Context, state *model.RefreshState) {
	if n, err := s.store.CountActiveJobs(ctx); err != nil {
		s.log.Error("count jobs", "error", err)
	} else {
		state.JobsCount = n
	}
	if sources, err := s.store.ListActiveSources(ctx); err != nil {
		s.log.Error("list sources", "error", err)
	} else {
		state.SourcesCount = len(sources)
	}
}

func (s *Scheduler) saveState(ctx context.Context, state *model.RefreshState) {
	if err := s.store.SaveRefreshState(ctx, state); err != nil {
		s.log.Error("save refresh state", "error", err)
	}
}
