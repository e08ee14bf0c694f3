// Package viewing records property views and attaches match scores to them
// out of band.
package viewing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"property_portal_backend/internal/listings/repository"
	"property_portal_backend/internal/matching"
	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/logger"
)

// Scorer produces a match result and never fails.
type Scorer interface {
	Score(ctx context.Context, prefs matching.BuyerPreferences, listing matching.ListingAttributes) matching.MatchResult
}

// ScoreScheduler enqueues view scoring outside the request lifecycle.
type ScoreScheduler interface {
	EnqueueViewScoring(ctx context.Context, tenantID, viewID uuid.UUID) error
}

type Service struct {
	views     repository.ViewStore
	inputs    repository.MatchInputStore
	scorer    Scorer
	scheduler ScoreScheduler
	log       *logger.Logger
}

func New(views repository.ViewStore, inputs repository.MatchInputStore, scorer Scorer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{views: views, inputs: inputs, scorer: scorer, log: log}
}

// SetScheduler wires the job scheduler after construction; the scheduler's
// worker itself depends on this service.
func (s *Service) SetScheduler(scheduler ScoreScheduler) {
	s.scheduler = scheduler
}

// OnPropertyViewed stores the view and, for known buyers, schedules scoring.
// It returns as soon as the view is written.
func (s *Service) OnPropertyViewed(ctx context.Context, tenantID uuid.UUID, buyerSessionID *uuid.UUID, listingID uuid.UUID, metrics repository.ViewMetrics) (uuid.UUID, error) {
	const op = "viewing.OnPropertyViewed"

	exists, err := s.inputs.ListingExists(ctx, tenantID, listingID)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.KindInternal, "failed to load listing", err).WithOp(op)
	}
	if !exists {
		return uuid.Nil, apperr.NotFound("listing not found").WithOp(op)
	}

	view, err := s.views.CreateView(ctx, repository.PropertyView{
		TenantID:       tenantID,
		ListingID:      listingID,
		BuyerSessionID: buyerSessionID,
		Metrics:        metrics,
	})
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("create_property_view", err)
		return uuid.Nil, apperr.Wrap(apperr.KindInternal, "failed to record view", err).WithOp(op)
	}

	if buyerSessionID == nil || s.scheduler == nil {
		return view.ID, nil
	}

	if err := s.scheduler.EnqueueViewScoring(ctx, tenantID, view.ID); err != nil {
		s.log.WithContext(ctx).Error("failed to schedule view scoring",
			slog.String("viewId", view.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return view.ID, nil
}

// ScoreView runs the scorer for a stored view and patches the result onto it.
// Views without a buyer, or whose buyer or listing has since disappeared,
// complete without a score. Running it twice is safe.
func (s *Service) ScoreView(ctx context.Context, tenantID, viewID uuid.UUID) error {
	const op = "viewing.ScoreView"
	log := &logger.Logger{Logger: s.log.WithContext(ctx).With(slog.String("viewId", viewID.String()))}

	view, err := s.views.GetView(ctx, tenantID, viewID)
	if errors.Is(err, repository.ErrViewNotFound) {
		return apperr.NotFound("view not found").WithOp(op)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to load view", err).WithOp(op)
	}
	if view.BuyerSessionID == nil {
		return nil
	}

	prefs, err := s.inputs.GetBuyerPreferences(ctx, tenantID, *view.BuyerSessionID)
	if errors.Is(err, repository.ErrBuyerSessionNotFound) {
		log.Warn("buyer session gone, skipping view scoring")
		return nil
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to load buyer preferences", err).WithOp(op)
	}

	listing, err := s.inputs.GetListingAttributes(ctx, tenantID, view.ListingID)
	if errors.Is(err, repository.ErrListingNotFound) {
		log.Warn("listing gone, skipping view scoring")
		return nil
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to load listing", err).WithOp(op)
	}

	result := s.scorer.Score(ctx, prefs, listing)

	applied, err := s.views.PatchViewMatch(ctx, tenantID, viewID, result)
	if errors.Is(err, repository.ErrViewNotFound) {
		return apperr.NotFound("view not found").WithOp(op)
	}
	if err != nil {
		log.DatabaseError("patch_view_match", err)
		return apperr.Wrap(apperr.KindInternal, "failed to store match result", err).WithOp(op)
	}
	if !applied {
		log.Debug("newer match result already stored")
		return nil
	}

	log.Info("view scored",
		slog.Int("score", result.Score),
		slog.String("source", string(result.Source)),
	)
	return nil
}
