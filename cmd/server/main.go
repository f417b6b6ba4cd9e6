// Package main is the entrypoint for the ContentGen API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/contentgen/internal/ai"
	"github.com/kiranshivaraju/contentgen/internal/api"
	"github.com/kiranshivaraju/contentgen/internal/api/handler"
	mw "github.com/kiranshivaraju/contentgen/internal/api/middleware"
	"github.com/kiranshivaraju/contentgen/internal/cache"
	"github.com/kiranshivaraju/contentgen/internal/config"
	"github.com/kiranshivaraju/contentgen/internal/prompts"
	"github.com/kiranshivaraju/contentgen/internal/store"
	"github.com/kiranshivaraju/contentgen/internal/sweeper"
	"github.com/kiranshivaraju/contentgen/internal/webhook"
)

const (
	shutdownTimeout = 30 * time.Second
	migrationsDir   = "migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config and fail fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog := config.SetupLogger(cfg.Log)
	defer closeLog()
	slog.SetDefault(logger)
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "store", cfg.Store.Backend,
		"auth_mode", cfg.Auth.Mode, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the job store
	jobStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 4. Create the upstream provider and generation service
	upstream, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", upstream.Name())

	catalog, err := prompts.Load(cfg.AI.PromptsFile)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	svc := ai.NewGenerationService(
		ai.NewAdapter(upstream, logger),
		jobStore,
		redisCache,
		webhook.NewHTTPNotifier(cfg.Jobs.WebhookTimeout, logger),
		catalog,
		ai.Timeouts{Inference: cfg.AI.InferenceTimeout, Video: cfg.Jobs.VideoTimeout},
		logger,
	)

	// 5. Start the stale job sweeper
	sw, err := sweeper.New(svc, sweeper.Config{
		Interval:   cfg.Jobs.SweepInterval,
		StaleAfter: cfg.Jobs.VideoTimeout,
		Retention:  cfg.Jobs.Retention,
	}, logger)
	if err != nil {
		return fmt.Errorf("create sweeper: %w", err)
	}
	sw.Start()

	// 6. Build router with dependencies
	deps := api.Dependencies{
		Auth:        mw.NewAuth(jobStore, cfg.Auth.Mode),
		RateLimit:   mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMin),
		CORSOrigins: cfg.Server.CORSOrigins,

		HealthHandler:        handler.NewHealthHandler(jobStore, redisCache, svc.ProviderName()),
		TextHandler:          handler.NewTextHandler(svc),
		ImageHandler:         handler.NewImageHandler(svc),
		VideoHandler:         handler.NewVideoHandler(svc),
		JobStatusHandler:     handler.NewJobStatusHandler(svc),
		ImprovePromptHandler: handler.NewImprovePromptHandler(svc),
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.InferenceTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		sw.Stop(context.Background())
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	sw.Stop(shutdownCtx)

	if !waitForWorkers(shutdownCtx, svc) {
		slog.Warn("shutdown timed out with video jobs still running; the sweeper will fail them on restart")
	}

	slog.Info("server stopped gracefully")
	return nil
}

// openStore returns the job store selected by STORE_BACKEND and its cleanup.
// The postgres backend connects and applies pending migrations first.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Store.Backend != config.StorePostgres {
		slog.Info("using in-memory job store")
		return store.NewMemoryStore(), func() {}, nil
	}

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, migrationsDir); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	return store.NewPostgresStore(pool), pool.Close, nil
}

// waitForWorkers blocks until in-flight video jobs finish or ctx ends.
func waitForWorkers(ctx context.Context, svc *ai.GenerationService) bool {
	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
