// Package server exposes the REST surface over the store and the scheduler.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"jobradar/internal/model"
	"jobradar/internal/storage"
)

// Refresher is the scheduler surface the API needs: a manual trigger and a
// status snapshot.
type Refresher interface {
	TriggerNow() bool
	Snapshot(ctx context.Context) (*model.Snapshot, error)
}

// Server is the HTTP API.
type Server struct {
	app   *fiber.App
	store storage.Storage
	sched Refresher
	log   *slog.Logger
}

// New creates the server and registers all routes.
func New(store storage.Storage, sched Refresher, log *slog.Logger) *Server {
	s := &Server{
		store: store,
		sched: sched,
		log:   log,
	}

	app := fiber.New()
	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Get("/jobs", s.handleListJobs)
	api.Post("/jobs/sweep", s.handleSweep)
	api.Get("/refresh-status", s.handleRefreshStatus)
	api.Post("/refresh-now", s.handleRefreshNow)
	api.Get("/sources", s.handleListSources)
	api.Post("/sources", s.handleCreateSource)
	api.Delete("/sources/:id", s.handleDeleteSource)

	s.app = app
	return s
}

// Listen serves the API on addr, blocking until shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
