package transport

import (
	"time"

	"github.com/google/uuid"

	"property_portal_backend/internal/listings/repository"
	"property_portal_backend/internal/matching"
	"property_portal_backend/platform/sanitize"
)

// BuyerPreferencesRequest is the wire form of a buyer's search preferences.
type BuyerPreferencesRequest struct {
	MinPrice               *float64 `json:"minPrice,omitempty" validate:"omitempty,min=0"`
	MaxPrice               *float64 `json:"maxPrice,omitempty" validate:"omitempty,min=0"`
	Bedrooms               *int     `json:"bedrooms,omitempty" validate:"omitempty,min=0,max=50"`
	Bathrooms              *int     `json:"bathrooms,omitempty" validate:"omitempty,min=0,max=50"`
	PropertyTypes          []string `json:"propertyTypes,omitempty" validate:"omitempty,max=20,dive,max=50"`
	Cities                 []string `json:"cities,omitempty" validate:"omitempty,max=50,dive,max=100"`
	MustHaveFeatures       []string `json:"mustHaveFeatures,omitempty" validate:"omitempty,max=50,dive,max=100"`
	PreQualificationAmount *float64 `json:"preQualificationAmount,omitempty" validate:"omitempty,min=0"`
}

// ListingAttributesRequest is the wire form of the listing being scored.
type ListingAttributesRequest struct {
	Address      string   `json:"address" validate:"max=300"`
	City         string   `json:"city" validate:"max=100"`
	State        string   `json:"state" validate:"max=100"`
	Price        float64  `json:"price" validate:"min=0"`
	Bedrooms     int      `json:"bedrooms" validate:"min=0,max=50"`
	Bathrooms    float64  `json:"bathrooms" validate:"min=0,max=50"`
	SquareFeet   int      `json:"squareFeet" validate:"min=0"`
	PropertyType string   `json:"propertyType" validate:"max=50"`
	Features     []string `json:"features" validate:"omitempty,max=100,dive,max=100"`
	YearBuilt    *int     `json:"yearBuilt,omitempty" validate:"omitempty,min=1600,max=2200"`
	LotSize      *float64 `json:"lotSize,omitempty" validate:"omitempty,min=0"`
}

// ScoreMatchRequest asks for a match score between preferences and a listing.
type ScoreMatchRequest struct {
	Preferences BuyerPreferencesRequest  `json:"preferences"`
	Listing     ListingAttributesRequest `json:"listing"`
}

// ToDomain converts the request into scorer inputs.
func (r ScoreMatchRequest) ToDomain() (matching.BuyerPreferences, matching.ListingAttributes) {
	p := r.Preferences
	l := r.Listing
	return matching.BuyerPreferences{
			MinPrice:               p.MinPrice,
			MaxPrice:               p.MaxPrice,
			Bedrooms:               p.Bedrooms,
			Bathrooms:              p.Bathrooms,
			PropertyTypes:          p.PropertyTypes,
			Cities:                 p.Cities,
			MustHaveFeatures:       p.MustHaveFeatures,
			PreQualificationAmount: p.PreQualificationAmount,
		}, matching.ListingAttributes{
			Address:      l.Address,
			City:         l.City,
			State:        l.State,
			Price:        l.Price,
			Bedrooms:     l.Bedrooms,
			Bathrooms:    l.Bathrooms,
			SquareFeet:   l.SquareFeet,
			PropertyType: l.PropertyType,
			Features:     l.Features,
			YearBuilt:    l.YearBuilt,
			LotSize:      l.LotSize,
		}
}

// ApplyOverridesRequest contains manual corrections for an analyzed draft.
type ApplyOverridesRequest struct {
	Bedrooms    *int     `json:"bedrooms,omitempty" validate:"omitempty,min=0,max=50"`
	Bathrooms   *int     `json:"bathrooms,omitempty" validate:"omitempty,min=0,max=50"`
	Style       *string  `json:"style,omitempty" validate:"omitempty,min=1,max=50"`
	Description *string  `json:"description,omitempty" validate:"omitempty,min=1,max=5000"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	CoverPhoto  *string  `json:"coverPhoto,omitempty" validate:"omitempty,min=1,max=500"`
	PhotoOrder  []string `json:"photoOrder,omitempty" validate:"omitempty,max=200,dive,min=1,max=500"`
}

// ToDomain converts the request into stored overrides.
func (r ApplyOverridesRequest) ToDomain() repository.DraftOverrides {
	return repository.DraftOverrides{
		Bedrooms:    r.Bedrooms,
		Bathrooms:   r.Bathrooms,
		Style:       r.Style,
		Description: sanitize.TextPtr(r.Description),
		Price:       r.Price,
		CoverPhoto:  r.CoverPhoto,
		PhotoOrder:  r.PhotoOrder,
	}
}

// RecordViewRequest captures a property view event.
type RecordViewRequest struct {
	BuyerSessionID  *uuid.UUID `json:"buyerSessionId,omitempty"`
	DurationSeconds int        `json:"durationSeconds" validate:"min=0,max=86400"`
	PhotosViewed    int        `json:"photosViewed" validate:"min=0,max=1000"`
	ScrollDepth     float64    `json:"scrollDepth" validate:"min=0,max=1"`
	Source          string     `json:"source,omitempty" validate:"omitempty,max=50"`
}

// Metrics returns the interaction metrics carried by the request.
func (r RecordViewRequest) Metrics() repository.ViewMetrics {
	return repository.ViewMetrics{
		DurationSeconds: r.DurationSeconds,
		PhotosViewed:    r.PhotosViewed,
		ScrollDepth:     r.ScrollDepth,
		Source:          r.Source,
	}
}

// RecordViewResponse returns the ID of the stored view.
type RecordViewResponse struct {
	ViewID uuid.UUID `json:"viewId"`
}

// AnalysisQueuedResponse is returned when analysis was scheduled rather than run.
type AnalysisQueuedResponse struct {
	DraftID uuid.UUID `json:"draftId"`
	Status  string    `json:"status"`
}

// DraftResponse represents a listing draft in API responses.
type DraftResponse struct {
	ID           uuid.UUID                  `json:"id"`
	Address      string                     `json:"address"`
	City         string                     `json:"city"`
	State        string                     `json:"state"`
	Price        *float64                   `json:"price,omitempty"`
	PhotoHandles []string                   `json:"photoHandles"`
	PhotoURLs    map[string]string          `json:"photoUrls,omitempty"`
	Status       string                     `json:"status"`
	Analysis     *repository.DraftAnalysis  `json:"analysis,omitempty"`
	Overrides    *repository.DraftOverrides `json:"overrides,omitempty"`
	UpdatedAt    time.Time                  `json:"updatedAt"`
}

// NewDraftResponse maps a stored draft to its response form.
func NewDraftResponse(d repository.ListingDraft) DraftResponse {
	handles := d.PhotoHandles
	if handles == nil {
		handles = []string{}
	}
	return DraftResponse{
		ID:           d.ID,
		Address:      d.Address,
		City:         d.City,
		State:        d.State,
		Price:        d.Price,
		PhotoHandles: handles,
		Status:       string(d.Status),
		Analysis:     d.Analysis,
		Overrides:    d.Overrides,
		UpdatedAt:    d.UpdatedAt,
	}
}
