// Package listings hosts the listing-intelligence workflows: draft photo
// analysis and manual overrides.
package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"property_portal_backend/internal/listings/analysis"
	"property_portal_backend/internal/listings/domain"
	"property_portal_backend/internal/listings/ports"
	"property_portal_backend/internal/listings/repository"
	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/metrics"
)

// BatchAnalyzer classifies and aggregates a batch of photos.
type BatchAnalyzer interface {
	AnalyzeBatch(ctx context.Context, images []analysis.Image) ([]analysis.PhotoAnalysis, analysis.PhotoAnalysisSummary, error)
}

// DraftOrchestrator runs the full draft analysis pipeline.
type DraftOrchestrator struct {
	drafts       repository.DraftStore
	photos       ports.PhotoStore
	analyzer     BatchAnalyzer
	descriptions ports.DescriptionGenerator
	log          *logger.Logger
	now          func() time.Time

	// one run per draft at a time within this process
	activeRuns map[uuid.UUID]bool
	runsMu     sync.Mutex
}

func NewDraftOrchestrator(drafts repository.DraftStore, photos ports.PhotoStore, analyzer BatchAnalyzer, descriptions ports.DescriptionGenerator, log *logger.Logger) *DraftOrchestrator {
	if log == nil {
		log = logger.Discard()
	}
	return &DraftOrchestrator{
		drafts:       drafts,
		photos:       photos,
		analyzer:     analyzer,
		descriptions: descriptions,
		log:          log,
		now:          time.Now,
		activeRuns:   make(map[uuid.UUID]bool),
	}
}

func (o *DraftOrchestrator) markRunning(draftID uuid.UUID) bool {
	o.runsMu.Lock()
	defer o.runsMu.Unlock()
	if o.activeRuns[draftID] {
		return false
	}
	o.activeRuns[draftID] = true
	return true
}

func (o *DraftOrchestrator) markComplete(draftID uuid.UUID) {
	o.runsMu.Lock()
	defer o.runsMu.Unlock()
	delete(o.activeRuns, draftID)
}

// RunDraftAnalysis analyzes every photo on the draft and stores the combined
// analysis in one write. A draft without photos is rejected before anything
// is written. Re-running overwrites the previous analysis.
func (o *DraftOrchestrator) RunDraftAnalysis(ctx context.Context, tenantID, draftID uuid.UUID) (repository.DraftAnalysis, error) {
	const op = "listings.RunDraftAnalysis"

	if !o.markRunning(draftID) {
		return repository.DraftAnalysis{}, apperr.Conflict("draft analysis already running").WithOp(op)
	}
	defer o.markComplete(draftID)

	draft, err := o.drafts.GetDraft(ctx, tenantID, draftID)
	if err != nil {
		return repository.DraftAnalysis{}, mapDraftError(op, err)
	}
	if len(draft.PhotoHandles) == 0 {
		return repository.DraftAnalysis{}, apperr.Precondition("no photos to analyze").WithOp(op)
	}

	log := &logger.Logger{Logger: o.log.WithContext(ctx).With(slog.String("draftId", draftID.String()))}

	previous := draft.Status
	if domain.IsAnalysisAbandoned(draft.Status, draft.UpdatedAt, o.now()) {
		previous = settledStatus(draft)
		if err := o.drafts.ClaimAbandonedAnalysis(ctx, tenantID, draftID, draft.UpdatedAt); err != nil {
			return repository.DraftAnalysis{}, mapDraftError(op, err)
		}
		log.Warn("claimed abandoned draft analysis",
			slog.Time("lastUpdated", draft.UpdatedAt),
			slog.String("restoreTo", string(previous)),
		)
	} else {
		if err := domain.ValidateDraftTransition(draft.Status, domain.DraftAnalyzing); err != nil {
			return repository.DraftAnalysis{}, apperr.Wrap(apperr.KindConflict, err.Error(), err).WithOp(op)
		}
		if err := o.drafts.TransitionDraftStatus(ctx, tenantID, draftID, previous, domain.DraftAnalyzing); err != nil {
			return repository.DraftAnalysis{}, mapDraftError(op, err)
		}
	}

	started := o.now()

	result, err := o.analyze(ctx, draft)
	if err != nil {
		o.restoreStatus(ctx, log, tenantID, draftID, previous)
		return repository.DraftAnalysis{}, err
	}

	if err := o.drafts.SaveDraftAnalysis(ctx, tenantID, draftID, result); err != nil {
		o.restoreStatus(ctx, log, tenantID, draftID, previous)
		log.DatabaseError("save_draft_analysis", err)
		return repository.DraftAnalysis{}, mapDraftError(op, err)
	}

	metrics.DraftAnalysisDuration.Observe(o.now().Sub(started).Seconds())
	log.Info("draft analysis completed",
		slog.Int("photos", len(result.Photos)),
		slog.Float64("confidence", result.Confidence),
	)
	return result, nil
}

func (o *DraftOrchestrator) analyze(ctx context.Context, draft repository.ListingDraft) (repository.DraftAnalysis, error) {
	images := o.loadImages(ctx, draft.PhotoHandles)

	analyses, summary, err := o.analyzer.AnalyzeBatch(ctx, images)
	if err != nil {
		return repository.DraftAnalysis{}, err
	}

	insights := analysis.DeriveInsights(summary)

	description := o.describe(ctx, ports.DescriptionInput{
		Address:   draft.Address,
		City:      draft.City,
		State:     draft.State,
		Price:     draft.Price,
		Bedrooms:  insights.EstimatedBedrooms,
		Bathrooms: insights.EstimatedBathrooms,
		Features:  summary.DetectedFeatures,
		Style:     insights.Style,
	})

	gallery := make([]analysis.GalleryPhoto, len(draft.PhotoHandles))
	for i, handle := range draft.PhotoHandles {
		gallery[i] = analysis.GalleryPhoto{Handle: handle, Analysis: analyses[i]}
	}

	var cover *string
	if summary.BestCoverPhoto != nil {
		handle := draft.PhotoHandles[*summary.BestCoverPhoto]
		cover = &handle
	}

	return repository.DraftAnalysis{
		Bedrooms:            insights.EstimatedBedrooms,
		Bathrooms:           insights.EstimatedBathrooms,
		Style:               insights.Style,
		Features:            summary.DetectedFeatures,
		Highlights:          insights.Highlights,
		PhotoQuality:        insights.PhotoQuality,
		Photos:              analysis.RankGallery(gallery),
		SuggestedCoverPhoto: cover,
		Description:         description,
		Confidence:          summary.AverageQuality / 10,
		AnalyzedAt:          o.now().UTC(),
	}, nil
}

// loadImages keeps one entry per handle. Photos that cannot be fetched carry
// the error so the analyzer records the default analysis for them.
func (o *DraftOrchestrator) loadImages(ctx context.Context, handles []string) []analysis.Image {
	images := make([]analysis.Image, len(handles))
	for i, handle := range handles {
		images[i] = analysis.Image{Handle: handle}
		if o.photos == nil {
			images[i].Err = errors.New("photo store not configured")
			continue
		}
		obj, err := o.photos.FetchPhoto(ctx, handle)
		if err != nil {
			images[i].Err = err
			continue
		}
		images[i].Data = obj.Data
		images[i].MIMEType = obj.ContentType
	}
	return images
}

func (o *DraftOrchestrator) describe(ctx context.Context, input ports.DescriptionInput) string {
	if o.descriptions == nil {
		return o.fallbackDescription(ctx, input, errors.New("description generator not configured"))
	}
	text, err := o.descriptions.GenerateDescription(ctx, input)
	if err != nil {
		return o.fallbackDescription(ctx, input, err)
	}
	if strings.TrimSpace(text) == "" {
		return o.fallbackDescription(ctx, input, errors.New("empty description"))
	}
	return strings.TrimSpace(text)
}

func (o *DraftOrchestrator) fallbackDescription(ctx context.Context, input ports.DescriptionInput, err error) string {
	o.log.WithContext(ctx).AIFallback("description_generator", "generation_failed", err)
	metrics.DescriptionFallbackTotal.Inc()
	return GenericDescription(input)
}

// GenericDescription is the one-line description used when generation fails.
func GenericDescription(input ports.DescriptionInput) string {
	location := strings.TrimSpace(input.City)
	if location == "" {
		location = strings.TrimSpace(input.Address)
	}
	if location == "" {
		return fmt.Sprintf("A %s %d bedroom, %d bathroom home.", input.Style, input.Bedrooms, input.Bathrooms)
	}
	return fmt.Sprintf("A %s %d bedroom, %d bathroom home in %s.", input.Style, input.Bedrooms, input.Bathrooms, location)
}

// settledStatus is the status an abandoned analysis falls back to when the
// new run fails, derived from what the draft already holds.
func settledStatus(draft repository.ListingDraft) domain.DraftStatus {
	switch {
	case draft.Analysis != nil && draft.Overrides != nil:
		return domain.DraftOverridden
	case draft.Analysis != nil:
		return domain.DraftAnalyzed
	default:
		return domain.DraftCreated
	}
}

func (o *DraftOrchestrator) restoreStatus(ctx context.Context, log *logger.Logger, tenantID, draftID uuid.UUID, previous domain.DraftStatus) {
	if err := o.drafts.TransitionDraftStatus(context.WithoutCancel(ctx), tenantID, draftID, domain.DraftAnalyzing, previous); err != nil {
		log.Error("failed to restore draft status", slog.String("status", string(previous)), slog.String("error", err.Error()))
	}
}

// GetDraft loads a draft together with short-lived download URLs for its
// photos, keyed by handle. Photos whose URL cannot be signed are left out.
func (o *DraftOrchestrator) GetDraft(ctx context.Context, tenantID, draftID uuid.UUID) (repository.ListingDraft, map[string]string, error) {
	const op = "listings.GetDraft"

	draft, err := o.drafts.GetDraft(ctx, tenantID, draftID)
	if err != nil {
		return repository.ListingDraft{}, nil, mapDraftError(op, err)
	}

	urls := make(map[string]string, len(draft.PhotoHandles))
	if o.photos == nil {
		return draft, urls, nil
	}
	for _, handle := range draft.PhotoHandles {
		url, err := o.photos.PhotoURL(ctx, handle)
		if err != nil {
			o.log.WithContext(ctx).Warn("failed to sign photo url",
				slog.String("handle", handle),
				slog.String("error", err.Error()),
			)
			continue
		}
		urls[handle] = url
	}
	return draft, urls, nil
}

// ApplyOverrides stores manual corrections on an analyzed draft and moves it
// to overridden.
func (o *DraftOrchestrator) ApplyOverrides(ctx context.Context, tenantID, draftID uuid.UUID, overrides repository.DraftOverrides) (repository.ListingDraft, error) {
	const op = "listings.ApplyOverrides"

	draft, err := o.drafts.GetDraft(ctx, tenantID, draftID)
	if err != nil {
		return repository.ListingDraft{}, mapDraftError(op, err)
	}
	if err := domain.ValidateDraftTransition(draft.Status, domain.DraftOverridden); err != nil {
		return repository.ListingDraft{}, apperr.Wrap(apperr.KindPrecondition, "draft must be analyzed before overrides", err).WithOp(op)
	}
	if err := validateOverrides(draft, overrides); err != nil {
		return repository.ListingDraft{}, err.WithOp(op)
	}

	if err := o.drafts.SaveDraftOverrides(ctx, tenantID, draftID, overrides); err != nil {
		return repository.ListingDraft{}, mapDraftError(op, err)
	}

	draft.Overrides = &overrides
	draft.Status = domain.DraftOverridden
	return draft, nil
}

func validateOverrides(draft repository.ListingDraft, overrides repository.DraftOverrides) *apperr.Error {
	handles := make(map[string]bool, len(draft.PhotoHandles))
	for _, h := range draft.PhotoHandles {
		handles[h] = true
	}

	if overrides.CoverPhoto != nil && !handles[*overrides.CoverPhoto] {
		return apperr.Validation("cover photo is not part of this draft")
	}
	if len(overrides.PhotoOrder) > 0 {
		if len(overrides.PhotoOrder) != len(draft.PhotoHandles) {
			return apperr.Validation("photo order must list every draft photo exactly once")
		}
		seen := make(map[string]bool, len(overrides.PhotoOrder))
		for _, h := range overrides.PhotoOrder {
			if !handles[h] || seen[h] {
				return apperr.Validation("photo order must list every draft photo exactly once")
			}
			seen[h] = true
		}
	}
	return nil
}

func mapDraftError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrDraftNotFound):
		return apperr.NotFound("draft not found").WithOp(op)
	case errors.Is(err, repository.ErrStatusChanged):
		return apperr.Wrap(apperr.KindConflict, "draft status changed, retry", err).WithOp(op)
	default:
		return apperr.Wrap(apperr.KindInternal, "draft storage failed", err).WithOp(op)
	}
}
