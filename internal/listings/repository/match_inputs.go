package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"property_portal_backend/internal/matching"
)

func (r *Repository) GetBuyerPreferences(ctx context.Context, tenantID, buyerSessionID uuid.UUID) (matching.BuyerPreferences, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT preferences FROM buyer_sessions WHERE id = $1 AND organization_id = $2
	`, buyerSessionID, tenantID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return matching.BuyerPreferences{}, ErrBuyerSessionNotFound
	}
	if err != nil {
		return matching.BuyerPreferences{}, err
	}

	var prefs matching.BuyerPreferences
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &prefs); err != nil {
			return matching.BuyerPreferences{}, fmt.Errorf("decode buyer preferences: %w", err)
		}
	}
	return prefs, nil
}

func (r *Repository) GetListingAttributes(ctx context.Context, tenantID, listingID uuid.UUID) (matching.ListingAttributes, error) {
	var (
		listing  matching.ListingAttributes
		features []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT address, city, state, price, bedrooms, bathrooms, square_feet, property_type, features, year_built, lot_size
		FROM listings
		WHERE id = $1 AND organization_id = $2
	`, listingID, tenantID).Scan(
		&listing.Address, &listing.City, &listing.State, &listing.Price, &listing.Bedrooms, &listing.Bathrooms,
		&listing.SquareFeet, &listing.PropertyType, &features, &listing.YearBuilt, &listing.LotSize,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return matching.ListingAttributes{}, ErrListingNotFound
	}
	if err != nil {
		return matching.ListingAttributes{}, err
	}

	if len(features) > 0 {
		if err := json.Unmarshal(features, &listing.Features); err != nil {
			return matching.ListingAttributes{}, fmt.Errorf("decode listing features: %w", err)
		}
	}
	return listing, nil
}

func (r *Repository) ListingExists(ctx context.Context, tenantID, listingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM listings WHERE id = $1 AND organization_id = $2)
	`, listingID, tenantID).Scan(&exists)
	return exists, err
}
