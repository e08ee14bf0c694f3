package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"property_portal_backend/internal/listings/repository"
	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"
)

// ViewScorer scores a stored property view.
type ViewScorer interface {
	ScoreView(ctx context.Context, tenantID, viewID uuid.UUID) error
}

// DraftAnalyzer runs a draft analysis.
type DraftAnalyzer interface {
	RunDraftAnalysis(ctx context.Context, tenantID, draftID uuid.UUID) (repository.DraftAnalysis, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	views  ViewScorer
	drafts DraftAnalyzer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, views ViewScorer, drafts DraftAnalyzer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}
	if log == nil {
		log = logger.Discard()
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server: server,
		views:  views,
		drafts: drafts,
		log:    log,
	}
	w.mux = w.routes()
	return w, nil
}

func (w *Worker) routes() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskScoreView, w.handleScoreView)
	mux.HandleFunc(TaskAnalyzeDraft, w.handleAnalyzeDraft)
	return mux
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleScoreView(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseScoreViewPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	viewID, tenantID, err := parseIDs(payload.ViewID, payload.TenantID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	return w.permanent(w.views.ScoreView(ctx, tenantID, viewID))
}

func (w *Worker) handleAnalyzeDraft(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAnalyzeDraftPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	draftID, tenantID, err := parseIDs(payload.DraftID, payload.TenantID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	_, err = w.drafts.RunDraftAnalysis(ctx, tenantID, draftID)
	return w.permanent(err)
}

// permanent marks errors that a retry cannot fix so asynq archives the task
// instead of retrying it.
func (w *Worker) permanent(err error) error {
	if err == nil {
		return nil
	}
	switch apperr.GetKind(err) {
	case apperr.KindNotFound, apperr.KindPrecondition, apperr.KindValidation, apperr.KindConflict:
		w.log.Warn("scheduler task skipped", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	default:
		return err
	}
}
