package collector

import (
	"context"
	"fmt"
	"log/slog"

	"jobradar/internal/model"
)

// Result aggregates everything one source produced during a pass.
// Jobs may be non-empty even when Status is StatusRateLimited or
// StatusError: pages fetched before the stop condition are kept.
type Result struct {
	Jobs   []model.Job
	Status Status
	Pages  int
	Err    error
}

// Orchestrator resolves a source to its collector and runs the page loop.
type Orchestrator struct {
	collectors map[model.SourceType]Collector
	pageCap    int // max pages per source per pass; 0 means unlimited
	log        *slog.Logger
}

// NewOrchestrator creates an Orchestrator over the given dispatch table.
func NewOrchestrator(collectors map[model.SourceType]Collector, pageCap int, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		collectors: collectors,
		pageCap:    pageCap,
		log:        log,
	}
}

// Run collects everything the source yields this pass. It requests pages
// until the collector reports exhaustion, the page cap is reached, or the
// provider rate-limits, whichever comes first.
func (o *Orchestrator) Run(ctx context.Context, src model.Source, query string) Result {
	c, ok := o.collectors[src.Type]
	if !ok {
		return Result{
			Status: StatusError,
			Err:    fmt.Errorf("no collector for source type %q", src.Type),
		}
	}

	var res Result
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			res.Status = StatusError
			res.Err = err
			return res
		}

		batch, status, err := c.Collect(ctx, src, query, page)
		res.Jobs = append(res.Jobs, batch...)
		res.Pages = page

		switch status {
		case StatusOK:
			if o.pageCap > 0 && page >= o.pageCap {
				o.log.Debug("page cap reached", "source_id", src.ID, "pages", page)
				res.Status = StatusExhausted
				return res
			}
		case StatusError:
			res.Status = StatusError
			res.Err = err
			return res
		default:
			res.Status = status
			return res
		}
	}
}
