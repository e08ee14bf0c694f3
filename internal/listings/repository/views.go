package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"property_portal_backend/internal/matching"
)

func (r *Repository) CreateView(ctx context.Context, view PropertyView) (PropertyView, error) {
	metrics, err := json.Marshal(view.Metrics)
	if err != nil {
		return PropertyView{}, fmt.Errorf("encode view metrics: %w", err)
	}
	if view.ID == uuid.Nil {
		view.ID = uuid.New()
	}
	if view.ViewedAt.IsZero() {
		view.ViewedAt = time.Now().UTC()
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO property_views (id, organization_id, listing_id, buyer_session_id, metrics, viewed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, view.ID, view.TenantID, view.ListingID, view.BuyerSessionID, metrics, view.ViewedAt)
	if err != nil {
		return PropertyView{}, err
	}

	view.Match = nil
	view.MatchCalculatedAt = nil
	return view, nil
}

func (r *Repository) GetView(ctx context.Context, tenantID, viewID uuid.UUID) (PropertyView, error) {
	var (
		view    PropertyView
		metrics []byte
		match   []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, listing_id, buyer_session_id, metrics, match_result, match_calculated_at, viewed_at
		FROM property_views
		WHERE id = $1 AND organization_id = $2
	`, viewID, tenantID).Scan(
		&view.ID, &view.TenantID, &view.ListingID, &view.BuyerSessionID, &metrics, &match, &view.MatchCalculatedAt, &view.ViewedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return PropertyView{}, ErrViewNotFound
	}
	if err != nil {
		return PropertyView{}, err
	}

	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &view.Metrics); err != nil {
			return PropertyView{}, fmt.Errorf("decode view metrics: %w", err)
		}
	}
	if len(match) > 0 {
		var result matching.MatchResult
		if err := json.Unmarshal(match, &result); err != nil {
			return PropertyView{}, fmt.Errorf("decode match result: %w", err)
		}
		view.Match = &result
	}
	return view, nil
}

// PatchViewMatch is last-write-wins keyed by the result's calculation time, so
// a redelivered or slower job never replaces a newer score.
func (r *Repository) PatchViewMatch(ctx context.Context, tenantID, viewID uuid.UUID, result matching.MatchResult) (bool, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("encode match result: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE property_views
		SET match_result = $3, match_calculated_at = $4
		WHERE id = $1 AND organization_id = $2
			AND (match_calculated_at IS NULL OR match_calculated_at <= $4)
	`, viewID, tenantID, payload, result.CalculatedAt)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM property_views WHERE id = $1 AND organization_id = $2)
	`, viewID, tenantID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrViewNotFound
	}
	return false, nil
}
