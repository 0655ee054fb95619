// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/perth/internal/api"
	"github.com/starford/perth/internal/metrics"
	"github.com/starford/perth/internal/pipeline"
	"github.com/starford/perth/internal/propservice"
	"github.com/starford/perth/internal/sse"
	"github.com/starford/perth/internal/storage"
	"github.com/starford/perth/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("corpus_path", cfg.Corpus.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, db, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	runOnce := func(ctx context.Context) {
		res, err := svc.Recompute(ctx)
		if err != nil {
			logger.Error("recompute failed", slog.String("error", err.Error()))
			broker.PublishRunError(err)
			return
		}
		broker.PublishRunResult(res)
	}

	// Initial run: bring the snapshot up to date with the corpus on disk.
	runOnce(ctx)

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the corpus directory and re-run the gate after changes settle.
	g.Go(func() error {
		return pipeline.Watch(gCtx, cfg.Corpus.Path, 500*time.Millisecond, logger, func() {
			runOnce(gCtx)
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunOnce executes a single recompute pass and returns its result. Used by
// the one-shot CLI command.
func RunOnce(ctx context.Context, cfg *Config) (*pipeline.Result, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	svc, db, err := buildService(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return svc.Recompute(ctx)
}

// BuildMCPService wires the service for the stdio MCP command. The caller
// owns the returned store and must close it.
func BuildMCPService(cfg *Config) (*propservice.Service, *store.DB, error) {
	// MCP speaks JSON-RPC over stdout; logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	return buildService(cfg, logger)
}

func buildService(cfg *Config, logger *slog.Logger) (*propservice.Service, *store.DB, error) {
	source, err := storage.NewFS(cfg.Corpus.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init corpus storage: %w", err)
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	pipe := pipeline.New(db, metrics.Options{
		Damping:       cfg.PageRank.Damping,
		MaxIterations: cfg.PageRank.MaxIterations,
		Tolerance:     cfg.PageRank.Tolerance,
	}, logger)

	return propservice.NewService(db, pipe, source, logger), db, nil
}
