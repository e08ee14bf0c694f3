// Package matching scores how well a listing fits a buyer's stated
// preferences. Score is the deterministic scorer; AIScorer asks the
// completion service first and falls back to Score on any failure.
package matching

import "time"

// Breakdown caps per dimension.
const (
	MaxPriceScore        = 30
	MaxLocationScore     = 20
	MaxPropertyTypeScore = 15
	MaxRoomsScore        = 15
	MaxFeaturesScore     = 20
	MaxScore             = 100
)

// Source tells which path produced a MatchResult.
type Source string

const (
	SourceAI            Source = "ai"
	SourceDeterministic Source = "deterministic"
)

// BuyerPreferences is an immutable snapshot of what a buyer asked for.
// Nil pointers and empty slices mean "no preference".
type BuyerPreferences struct {
	MinPrice               *float64 `json:"minPrice,omitempty"`
	MaxPrice               *float64 `json:"maxPrice,omitempty"`
	Bedrooms               *int     `json:"bedrooms,omitempty"`
	Bathrooms              *int     `json:"bathrooms,omitempty"`
	PropertyTypes          []string `json:"propertyTypes,omitempty"`
	Cities                 []string `json:"cities,omitempty"`
	MustHaveFeatures       []string `json:"mustHaveFeatures,omitempty"`
	PreQualificationAmount *float64 `json:"preQualificationAmount,omitempty"`
}

// ListingAttributes is the read-only view of a listing used for scoring.
type ListingAttributes struct {
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Price        float64  `json:"price"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    float64  `json:"bathrooms"`
	SquareFeet   int      `json:"squareFeet"`
	PropertyType string   `json:"propertyType"`
	Features     []string `json:"features"`
	YearBuilt    *int     `json:"yearBuilt,omitempty"`
	LotSize      *float64 `json:"lotSize,omitempty"`
}

// Breakdown holds the five sub-scores.
type Breakdown struct {
	Price        int `json:"price"`
	Location     int `json:"location"`
	PropertyType int `json:"propertyType"`
	Rooms        int `json:"rooms"`
	Features     int `json:"features"`
}

// Total sums the sub-scores.
func (b Breakdown) Total() int {
	return b.Price + b.Location + b.PropertyType + b.Rooms + b.Features
}

// MatchResult is the outcome of a scoring run, AI or deterministic.
type MatchResult struct {
	Score        int       `json:"matchScore"`
	Breakdown    Breakdown `json:"breakdown"`
	Reasoning    string    `json:"reasoning"`
	CalculatedAt time.Time `json:"calculatedAt"`
	Source       Source    `json:"source"`
}
