package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"property_portal_backend/platform/logger"
)

const inProcessWorkers = 4

// InProcess runs jobs on local goroutines when Redis is not configured. Jobs
// are lost on restart.
type InProcess struct {
	views  ViewScorer
	drafts DraftAnalyzer
	log    *logger.Logger
	delay  time.Duration

	slots chan struct{}
	wg    sync.WaitGroup
}

func NewInProcess(views ViewScorer, drafts DraftAnalyzer, log *logger.Logger) *InProcess {
	if log == nil {
		log = logger.Discard()
	}
	return &InProcess{
		views:  views,
		drafts: drafts,
		log:    log,
		delay:  viewScoringDelay,
		slots:  make(chan struct{}, inProcessWorkers),
	}
}

func (p *InProcess) EnqueueViewScoring(ctx context.Context, tenantID, viewID uuid.UUID) error {
	if p.views == nil {
		return fmt.Errorf("view scorer not configured")
	}
	p.spawn(ctx, TaskScoreView, p.delay, viewScoringTimeout, func(ctx context.Context) error {
		return p.views.ScoreView(ctx, tenantID, viewID)
	})
	return nil
}

func (p *InProcess) EnqueueDraftAnalysis(ctx context.Context, tenantID, draftID uuid.UUID) error {
	if p.drafts == nil {
		return fmt.Errorf("draft analyzer not configured")
	}
	p.spawn(ctx, TaskAnalyzeDraft, 0, draftAnalysisTimeout, func(ctx context.Context) error {
		_, err := p.drafts.RunDraftAnalysis(ctx, tenantID, draftID)
		return err
	})
	return nil
}

// Wait blocks until every spawned job has finished.
func (p *InProcess) Wait() {
	p.wg.Wait()
}

func (p *InProcess) spawn(ctx context.Context, task string, delay, timeout time.Duration, job func(context.Context) error) {
	// detach from the request so the job outlives it
	jobCtx := context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("in-process job panicked", slog.String("task", task), slog.Any("panic", r))
			}
		}()

		if delay > 0 {
			time.Sleep(delay)
		}

		p.slots <- struct{}{}
		defer func() { <-p.slots }()

		runCtx, cancel := context.WithTimeout(jobCtx, timeout)
		defer cancel()

		if err := job(runCtx); err != nil {
			p.log.Error("in-process job failed", slog.String("task", task), slog.String("error", err.Error()))
		}
	}()
}
