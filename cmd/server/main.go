package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"jobradar/internal/collector"
	"jobradar/internal/config"
	"jobradar/internal/model"
	"jobradar/internal/scheduler"
	"jobradar/internal/server"
	"jobradar/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." && cfg.DatabasePath != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := seedDefaultSource(ctx, store, cfg, log); err != nil {
		log.Error("seed default source", "error", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	registry := collector.NewRegistry(cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry, httpClient)
	orch := collector.NewOrchestrator(registry, cfg.PageCap, log)

	sched := scheduler.New(store, orch, scheduler.Config{
		Interval:     cfg.RefreshInterval,
		Keywords:     cfg.Keywords,
		Rotation:     cfg.Rotation,
		DefaultQuery: cfg.DefaultQuery,
	}, log)

	schedDone := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(schedDone)
	}()

	srv := server.New(store, sched, log)

	log.Info("starting server", "addr", cfg.ListenAddr, "interval", cfg.RefreshInterval)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Listen(cfg.ListenAddr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error("server failed", "error", err)
		}
		cancel()
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", "error", err)
		}
	}

	// Let an in-flight pass finish before closing the store.
	<-schedDone

	log.Info("stopped")
}

// seedDefaultSource creates one catch-all search-API source on a fresh
// database so a new deployment starts collecting without manual setup.
func seedDefaultSource(ctx context.Context, store storage.Storage, cfg *config.Config, log *slog.Logger) error {
	if !cfg.HasAdzunaCredentials() {
		return nil
	}
	sources, err := store.ListActiveSources(ctx)
	if err != nil {
		return err
	}
	if len(sources) > 0 {
		return nil
	}

	src := model.Source{
		Type:     model.SourceAPI,
		Query:    "all",
		Name:     "Adzuna - All Jobs",
		IsActive: true,
	}
	if err := store.CreateSource(ctx, &src); err != nil {
		return err
	}
	log.Info("created default search-API source", "source_id", src.ID)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
