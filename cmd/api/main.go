package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"property_portal_backend/internal/adapters/storage"
	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/internal/http/router"
	"property_portal_backend/internal/listings"
	"property_portal_backend/internal/scheduler"
	"property_portal_backend/platform/ai/completion"
	"property_portal_backend/platform/ai/moonshot"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/db"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Shared validator instance for dependency injection
	val := validator.New()

	// Listing photo storage (MinIO)
	photoStore, err := storage.NewPhotoStore(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure listing-photos bucket", 5, 2*time.Second, func() error {
		return photoStore.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketListingPhotos())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "listingPhotosBucket", cfg.GetMinioBucketListingPhotos())

	textAI, visionAI := newCompletionClients(cfg)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	listingsModule, err := listings.NewModule(pool, photoStore, textAI, visionAI, cfg, val, log)
	if err != nil {
		log.Error("failed to initialize listings module", "error", err)
		panic("failed to initialize listings module: " + err.Error())
	}

	jobs, closeJobs := initJobScheduler(cfg, listingsModule, log)
	defer closeJobs()
	listingsModule.SetScheduler(jobs)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  pool,
		Modules: []apphttp.Module{listingsModule},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// newCompletionClients builds the text and vision completion clients on Moonshot.
func newCompletionClients(cfg *config.Config) (completion.Service, completion.Service) {
	text := moonshot.NewModel(moonshot.Config{
		APIKey:  cfg.GetMoonshotAPIKey(),
		BaseURL: cfg.GetMoonshotBaseURL(),
		Model:   cfg.GetTextModel(),
	})
	vision := moonshot.NewModel(moonshot.Config{
		APIKey:          cfg.GetMoonshotAPIKey(),
		BaseURL:         cfg.GetMoonshotBaseURL(),
		Model:           cfg.GetVisionModel(),
		DisableThinking: strings.HasPrefix(cfg.GetVisionModel(), "kimi-k2.5"),
	})
	timeout := cfg.GetAIRequestTimeout()
	return completion.New(text, timeout), completion.New(vision, timeout)
}

// initJobScheduler returns the asynq client when Redis is configured and an
// in-process runner otherwise.
func initJobScheduler(cfg config.SchedulerConfig, module *listings.Module, log *logger.Logger) (listings.Scheduler, func()) {
	if cfg.IsSchedulerEnabled() {
		client, err := scheduler.NewClient(cfg)
		if err == nil {
			log.Info("background jobs queued through asynq", "queue", cfg.GetAsynqQueueName())
			return client, func() { _ = client.Close() }
		}
		log.Error("failed to initialize scheduler client, falling back to in-process jobs", "error", err)
	} else {
		log.Warn("REDIS_URL not configured; background jobs run in-process")
	}

	inProcess := scheduler.NewInProcess(module.Viewing(), module.Orchestrator(), log)
	return inProcess, inProcess.Wait
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
