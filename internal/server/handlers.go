package server

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"jobradar/internal/model"
	"jobradar/internal/storage"
)

const descriptionPreviewLen = 500

// jobResponse is the wire shape of one listing.
type jobResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	SourceName  string `json:"source_name"`
	Level       string `json:"level"`
	PostedDate  any    `json:"posted_date"`
	CollectedAt any    `json:"collected_at"`
}

func (s *Server) handleListJobs(c fiber.Ctx) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return badRequest(c, "invalid page")
	}
	perPage, err := queryInt(c, "per_page", 20)
	if err != nil {
		return badRequest(c, "invalid per_page")
	}

	jobs, total, err := s.store.ListJobs(c.Context(), storage.JobQuery{
		Search:   c.Query("search"),
		Location: c.Query("location"),
		Level:    c.Query("level"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		s.log.Error("list jobs", "error", err)
		return internalError(c)
	}

	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		desc := j.Description
		if len(desc) > descriptionPreviewLen {
			desc = desc[:descriptionPreviewLen]
		}
		collected := any(nil)
		if !j.CollectedAt.IsZero() {
			collected = j.CollectedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, jobResponse{
			ID:          j.ID,
			Title:       j.Title,
			Company:     j.Company,
			Location:    j.Location,
			Description: desc,
			URL:         j.URL,
			Source:      string(j.Source),
			SourceName:  j.SourceName,
			Level:       j.Level,
			PostedDate:  formatTimePtr(j.PostedDate),
			CollectedAt: collected,
		})
	}

	return c.JSON(fiber.Map{
		"jobs":     out,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (s *Server) handleSweep(c fiber.Ctx) error {
	days, err := queryInt(c, "days", 30)
	if err != nil || days < 1 {
		return badRequest(c, "invalid days")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	n, err := s.store.DeactivateStale(c.Context(), cutoff)
	if err != nil {
		s.log.Error("sweep stale jobs", "error", err)
		return internalError(c)
	}

	s.log.Info("stale jobs deactivated", "days", days, "count", n)
	return c.JSON(fiber.Map{"deactivated": n})
}

func (s *Server) handleRefreshStatus(c fiber.Ctx) error {
	snap, err := s.sched.Snapshot(c.Context())
	if err != nil {
		s.log.Error("status snapshot", "error", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"last_refresh":       formatTimePtr(snap.LastRefreshAt),
		"jobs_count":         snap.JobsCount,
		"sources_count":      snap.SourcesCount,
		"companies_count":    snap.CompaniesCount,
		"quota_exhausted":    snap.QuotaExhausted,
		"quota_exhausted_on": formatTimePtr(snap.QuotaExhaustedOn),
	})
}

func (s *Server) handleRefreshNow(c fiber.Ctx) error {
	if !s.sched.TriggerNow() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "refresh already running",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "refresh started",
	})
}

type sourceRequest struct {
	Type  string `json:"type"`
	Query string `json:"query"`
	Name  string `json:"name"`
}

func (s *Server) handleListSources(c fiber.Ctx) error {
	sources, err := s.store.ListActiveSources(c.Context())
	if err != nil {
		s.log.Error("list sources", "error", err)
		return internalError(c)
	}

	out := make([]fiber.Map, 0, len(sources))
	for _, src := range sources {
		out = append(out, fiber.Map{
			"id":         src.ID,
			"type":       string(src.Type),
			"query":      src.Query,
			"name":       src.Name,
			"created_at": src.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"sources": out})
}

func (s *Server) handleCreateSource(c fiber.Ctx) error {
	var req sourceRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	typ := model.SourceType(req.Type)
	if !model.ValidSourceType(typ) {
		return badRequest(c, "unknown source type")
	}
	// API sources may omit the query; an empty one means "everything".
	if req.Query == "" {
		if typ != model.SourceAPI {
			return badRequest(c, "query is required")
		}
		req.Query = "all"
	}

	src := model.Source{
		Type:     typ,
		Query:    req.Query,
		Name:     req.Name,
		IsActive: true,
	}
	if err := s.store.CreateSource(c.Context(), &src); err != nil {
		s.log.Error("create source", "error", err)
		return internalError(c)
	}

	s.log.Info("source added", "source_id", src.ID, "type", src.Type)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": src.ID})
}

func (s *Server) handleDeleteSource(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid source id")
	}

	ok, err := s.store.DeactivateSource(c.Context(), id)
	if err != nil {
		s.log.Error("deactivate source", "source_id", id, "error", err)
		return internalError(c)
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "source not found"})
	}

	s.log.Info("source removed", "source_id", id)
	return c.JSON(fiber.Map{"deleted": true})
}

func queryInt(c fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func internalError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
