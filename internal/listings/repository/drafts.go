package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"property_portal_backend/internal/listings/domain"
)

func (r *Repository) GetDraft(ctx context.Context, tenantID, draftID uuid.UUID) (ListingDraft, error) {
	var (
		draft        ListingDraft
		status       string
		photoHandles []byte
		overrides    []byte
		analysis     []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, agent_id, address, city, state, price,
			photo_handles, overrides, analysis, status, created_at, updated_at
		FROM listing_drafts
		WHERE id = $1 AND organization_id = $2
	`, draftID, tenantID).Scan(
		&draft.ID, &draft.TenantID, &draft.AgentID, &draft.Address, &draft.City, &draft.State, &draft.Price,
		&photoHandles, &overrides, &analysis, &status, &draft.CreatedAt, &draft.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ListingDraft{}, ErrDraftNotFound
	}
	if err != nil {
		return ListingDraft{}, err
	}

	draft.Status = domain.DraftStatus(status)
	if err := json.Unmarshal(photoHandles, &draft.PhotoHandles); err != nil {
		return ListingDraft{}, fmt.Errorf("decode photo handles: %w", err)
	}
	if len(overrides) > 0 {
		var o DraftOverrides
		if err := json.Unmarshal(overrides, &o); err != nil {
			return ListingDraft{}, fmt.Errorf("decode overrides: %w", err)
		}
		draft.Overrides = &o
	}
	if len(analysis) > 0 {
		var a DraftAnalysis
		if err := json.Unmarshal(analysis, &a); err != nil {
			return ListingDraft{}, fmt.Errorf("decode analysis: %w", err)
		}
		draft.Analysis = &a
	}

	return draft, nil
}

func (r *Repository) TransitionDraftStatus(ctx context.Context, tenantID, draftID uuid.UUID, from, to domain.DraftStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE listing_drafts
		SET status = $4, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND status = $3
	`, draftID, tenantID, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrChanged(ctx, tenantID, draftID)
	}
	return nil
}

func (r *Repository) ClaimAbandonedAnalysis(ctx context.Context, tenantID, draftID uuid.UUID, lastUpdated time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE listing_drafts
		SET updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND status = $3 AND updated_at <= $4
	`, draftID, tenantID, string(domain.DraftAnalyzing), lastUpdated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrChanged(ctx, tenantID, draftID)
	}
	return nil
}

func (r *Repository) SaveDraftAnalysis(ctx context.Context, tenantID, draftID uuid.UUID, analysis DraftAnalysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE listing_drafts
		SET analysis = $3, status = $4, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND status = $5
	`, draftID, tenantID, payload, string(domain.DraftAnalyzed), string(domain.DraftAnalyzing))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrChanged(ctx, tenantID, draftID)
	}
	return nil
}

func (r *Repository) SaveDraftOverrides(ctx context.Context, tenantID, draftID uuid.UUID, overrides DraftOverrides) error {
	payload, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE listing_drafts
		SET overrides = $3, status = $4, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND status IN ($5, $4)
	`, draftID, tenantID, payload, string(domain.DraftOverridden), string(domain.DraftAnalyzed))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrChanged(ctx, tenantID, draftID)
	}
	return nil
}

func (r *Repository) missingOrChanged(ctx context.Context, tenantID, draftID uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM listing_drafts WHERE id = $1 AND organization_id = $2)
	`, draftID, tenantID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrDraftNotFound
	}
	return ErrStatusChanged
}
