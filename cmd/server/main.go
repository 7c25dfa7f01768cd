package main

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

	"github.com/joho/godotenv"
	"github.com/nmoreno/careerhub/internal/ai"
	"github.com/nmoreno/careerhub/internal/analysis"
	"github.com/nmoreno/careerhub/internal/api"
	"github.com/nmoreno/careerhub/internal/api/response"
	"github.com/nmoreno/careerhub/internal/cache"
	"github.com/nmoreno/careerhub/internal/config"
	"github.com/nmoreno/careerhub/internal/extract"
	"github.com/nmoreno/careerhub/internal/storage"
	"github.com/nmoreno/careerhub/internal/store"
	"golang.org/x/sync/semaphore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pgStore := store.NewPostgresStore(pool)

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}

	docStorage, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	provider, err := ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("initializing ai provider: %w", err)
	}
	slog.Info("ai provider ready", "provider", provider.Name())

	extractor := extract.NewPDFExtractor(cfg.Extract.MaxConcurrent)

	analysisService := analysis.NewService(analysis.Params{
		Store:      pgStore,
		Cache:      redisCache,
		Storage:    docStorage,
		Extractor:  extractor,
		Provider:   provider,
		Limiter:    semaphore.NewWeighted(int64(cfg.AI.MaxConcurrent)),
		Timeout:    cfg.AI.InferenceTimeout,
		MaxRetries: cfg.AI.MaxRetries,
	})

	router := api.NewRouter(api.Dependencies{
		Store:         pgStore,
		Cache:         redisCache,
		Storage:       docStorage,
		Analysis:      analysisService,
		HealthHandler: healthHandler(pgStore, redisCache),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := "ok"
		checks := map[string]string{"database": "ok", "redis": "ok"}

		if err := s.Ping(ctx); err != nil {
			status = "degraded"
			checks["database"] = "unreachable"
		}
		if err := c.Ping(ctx); err != nil {
			status = "degraded"
			checks["redis"] = "unreachable"
		}

		if status != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED", "One or more dependencies are unreachable", checks)
			return
		}
		response.JSON(w, map[string]any{"status": status, "checks": checks})
	}
}
