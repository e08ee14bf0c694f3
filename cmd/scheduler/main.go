package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"property_portal_backend/internal/adapters/storage"
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

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	photoStore, err := storage.NewPhotoStore(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	val := validator.New()
	timeout := cfg.GetAIRequestTimeout()
	textAI := completion.New(moonshot.NewModel(moonshot.Config{
		APIKey:  cfg.GetMoonshotAPIKey(),
		BaseURL: cfg.GetMoonshotBaseURL(),
		Model:   cfg.GetTextModel(),
	}), timeout)
	visionAI := completion.New(moonshot.NewModel(moonshot.Config{
		APIKey:          cfg.GetMoonshotAPIKey(),
		BaseURL:         cfg.GetMoonshotBaseURL(),
		Model:           cfg.GetVisionModel(),
		DisableThinking: strings.HasPrefix(cfg.GetVisionModel(), "kimi-k2.5"),
	}), timeout)

	// Worker-side listing wiring (no HTTP handlers required).
	listingsModule, err := listings.NewModule(pool, photoStore, textAI, visionAI, cfg, val, log)
	if err != nil {
		log.Error("failed to initialize listings module", "error", err)
		panic("failed to initialize listings module: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, listingsModule.Viewing(), listingsModule.Orchestrator(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
