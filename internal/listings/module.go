// Package listings provides the listing intelligence bounded context module.
// It owns draft photo analysis, buyer match scoring and view tracking.
package listings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/internal/listings/agent"
	"property_portal_backend/internal/listings/analysis"
	"property_portal_backend/internal/listings/handler"
	"property_portal_backend/internal/listings/ports"
	"property_portal_backend/internal/listings/repository"
	"property_portal_backend/internal/listings/viewing"
	"property_portal_backend/internal/matching"
	"property_portal_backend/platform/ai/completion"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/validator"
)

// Scheduler queues the module's background jobs.
type Scheduler interface {
	EnqueueViewScoring(ctx context.Context, tenantID, viewID uuid.UUID) error
	EnqueueDraftAnalysis(ctx context.Context, tenantID, draftID uuid.UUID) error
}

// Module is the listings bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	orchestrator *DraftOrchestrator
	viewing      *viewing.Service
	repo         *repository.Repository
}

// NewModule creates and initializes the listings module with all its dependencies.
// textAI drives match scoring and descriptions; visionAI classifies photos.
func NewModule(
	pool *pgxpool.Pool,
	photos ports.PhotoStore,
	textAI completion.Service,
	visionAI completion.Service,
	cfg config.PhotoAnalysisConfig,
	val *validator.Validator,
	log *logger.Logger,
) (*Module, error) {
	repo := repository.New(pool)

	classifier, err := agent.NewPhotoClassifier(visionAI, val)
	if err != nil {
		return nil, fmt.Errorf("photo classifier: %w", err)
	}
	analyzer := analysis.NewBatchAnalyzer(classifier, analysis.BatchOptions{
		Interval:    cfg.GetPhotoAnalysisInterval(),
		Concurrency: cfg.GetPhotoAnalysisConcurrency(),
	}, log)

	orchestrator := NewDraftOrchestrator(repo, photos, analyzer, agent.NewDescriptionGenerator(textAI), log)
	scorer := matching.NewAIScorer(textAI, val, log)
	viewSvc := viewing.New(repo, repo, scorer, log)

	return &Module{
		handler:      handler.New(scorer, orchestrator, viewSvc, val),
		orchestrator: orchestrator,
		viewing:      viewSvc,
		repo:         repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "listings"
}

// Orchestrator returns the draft orchestrator for background workers.
func (m *Module) Orchestrator() *DraftOrchestrator {
	return m.orchestrator
}

// Viewing returns the view tracking service for background workers.
func (m *Module) Viewing() *viewing.Service {
	return m.viewing
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// SetScheduler wires background scheduling for view scoring and async analysis.
func (m *Module) SetScheduler(s Scheduler) {
	m.viewing.SetScheduler(s)
	m.handler.SetAnalysisEnqueuer(s)
}

// RegisterRoutes mounts listing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Endpoints that call the completion service get the stricter limiter
	ai := ctx.V1.Group("", ctx.AIRateLimiter.RateLimit())
	ai.POST("/matching/score", m.handler.ScoreMatch)
	ai.POST("/drafts/:id/analyze", m.handler.AnalyzeDraft)

	ctx.V1.GET("/drafts/:id", m.handler.GetDraft)
	ctx.V1.PATCH("/drafts/:id/overrides", m.handler.ApplyOverrides)
	ctx.V1.POST("/listings/:id/views", m.handler.RecordView)
}
