package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"property_portal_backend/internal/listings/domain"
	"property_portal_backend/internal/matching"
)

// DraftStore persists listing drafts.
type DraftStore interface {
	GetDraft(ctx context.Context, tenantID, draftID uuid.UUID) (ListingDraft, error)
	// TransitionDraftStatus moves a draft from one status to another and fails
	// with ErrStatusChanged when the stored status is no longer from.
	TransitionDraftStatus(ctx context.Context, tenantID, draftID uuid.UUID, from, to domain.DraftStatus) error
	// ClaimAbandonedAnalysis renews the lease on an analyzing draft whose last
	// update is not after lastUpdated. It fails with ErrStatusChanged when the
	// draft left analyzing or another run claimed it first.
	ClaimAbandonedAnalysis(ctx context.Context, tenantID, draftID uuid.UUID, lastUpdated time.Time) error
	// SaveDraftAnalysis writes the analysis and marks the draft analyzed in one
	// statement.
	SaveDraftAnalysis(ctx context.Context, tenantID, draftID uuid.UUID, analysis DraftAnalysis) error
	SaveDraftOverrides(ctx context.Context, tenantID, draftID uuid.UUID, overrides DraftOverrides) error
}

// ViewStore persists property views and their match results.
type ViewStore interface {
	CreateView(ctx context.Context, view PropertyView) (PropertyView, error)
	GetView(ctx context.Context, tenantID, viewID uuid.UUID) (PropertyView, error)
	// PatchViewMatch stores result unless a newer result is already present.
	// It reports whether the write was applied.
	PatchViewMatch(ctx context.Context, tenantID, viewID uuid.UUID, result matching.MatchResult) (bool, error)
}

// MatchInputStore loads the two sides of a match.
type MatchInputStore interface {
	GetBuyerPreferences(ctx context.Context, tenantID, buyerSessionID uuid.UUID) (matching.BuyerPreferences, error)
	GetListingAttributes(ctx context.Context, tenantID, listingID uuid.UUID) (matching.ListingAttributes, error)
	ListingExists(ctx context.Context, tenantID, listingID uuid.UUID) (bool, error)
}

var (
	_ DraftStore      = (*Repository)(nil)
	_ ViewStore       = (*Repository)(nil)
	_ MatchInputStore = (*Repository)(nil)
)
