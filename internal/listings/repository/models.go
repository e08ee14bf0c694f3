package repository

import (
	"time"

	"github.com/google/uuid"

	"property_portal_backend/internal/listings/analysis"
	"property_portal_backend/internal/listings/domain"
	"property_portal_backend/internal/matching"
)

// ListingDraft is an agent-authored listing awaiting analysis or publication.
type ListingDraft struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	AgentID      uuid.UUID
	Address      string
	City         string
	State        string
	Price        *float64
	PhotoHandles []string
	Overrides    *DraftOverrides
	Analysis     *DraftAnalysis
	Status       domain.DraftStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DraftAnalysis is the machine-assembled analysis embedded on a draft.
type DraftAnalysis struct {
	Bedrooms            int                    `json:"bedrooms"`
	Bathrooms           int                    `json:"bathrooms"`
	Style               string                 `json:"style"`
	Features            []string               `json:"features"`
	Highlights          []string               `json:"highlights"`
	PhotoQuality        string                 `json:"photoQuality"`
	Photos              []analysis.RankedPhoto `json:"photos"`
	SuggestedCoverPhoto *string                `json:"suggestedCoverPhoto,omitempty"`
	Description         string                 `json:"description"`
	Confidence          float64                `json:"confidence"`
	AnalyzedAt          time.Time              `json:"analyzedAt"`
}

// DraftOverrides are manual corrections layered on top of the analysis.
type DraftOverrides struct {
	Bedrooms    *int     `json:"bedrooms,omitempty"`
	Bathrooms   *int     `json:"bathrooms,omitempty"`
	Style       *string  `json:"style,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	CoverPhoto  *string  `json:"coverPhoto,omitempty"`
	PhotoOrder  []string `json:"photoOrder,omitempty"`
}

// ViewMetrics are the interaction metrics captured with a property view.
type ViewMetrics struct {
	DurationSeconds int     `json:"durationSeconds"`
	PhotosViewed    int     `json:"photosViewed"`
	ScrollDepth     float64 `json:"scrollDepth"`
	Source          string  `json:"source,omitempty"`
}

// PropertyView records a buyer (or anonymous visitor) viewing a listing.
type PropertyView struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	ListingID         uuid.UUID
	BuyerSessionID    *uuid.UUID
	Metrics           ViewMetrics
	Match             *matching.MatchResult
	MatchCalculatedAt *time.Time
	ViewedAt          time.Time
}
