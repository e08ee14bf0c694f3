// Package analysis turns per-photo classifications into listing insights:
// batch classification with pacing, aggregation, rule-based insights and
// gallery ordering. Everything except AnalyzeBatch is pure.
package analysis

import (
	"context"
	"slices"
)

// RoomType is the closed set of room labels a photo can receive.
type RoomType string

const (
	RoomBedroom    RoomType = "bedroom"
	RoomKitchen    RoomType = "kitchen"
	RoomBathroom   RoomType = "bathroom"
	RoomLivingRoom RoomType = "living-room"
	RoomDiningRoom RoomType = "dining-room"
	RoomExterior   RoomType = "exterior"
	RoomGarage     RoomType = "garage"
	RoomBasement   RoomType = "basement"
	RoomLaundry    RoomType = "laundry"
	RoomOffice     RoomType = "office"
	RoomOther      RoomType = "other"
)

// RoomTypes lists every valid RoomType in prompt order.
var RoomTypes = []RoomType{
	RoomBedroom, RoomKitchen, RoomBathroom, RoomLivingRoom, RoomDiningRoom,
	RoomExterior, RoomGarage, RoomBasement, RoomLaundry, RoomOffice, RoomOther,
}

// Valid reports whether r is part of the closed set.
func (r RoomType) Valid() bool { return slices.Contains(RoomTypes, r) }

// SuggestedUse says how a photo should be used in the listing.
type SuggestedUse string

const (
	UseCoverPhoto SuggestedUse = "cover-photo"
	UseGallery    SuggestedUse = "gallery"
	UseSkip       SuggestedUse = "skip"
)

// Condition is the visible state of the photographed space.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// PhotoAnalysis is the classification of a single photo.
type PhotoAnalysis struct {
	RoomType     RoomType     `json:"roomType"`
	Features     []string     `json:"features"`
	QualityScore int          `json:"qualityScore"`
	SuggestedUse SuggestedUse `json:"suggestedUse"`
	Condition    Condition    `json:"condition"`
	Confidence   float64      `json:"confidence"`
	Description  string       `json:"description"`
}

// DefaultPhotoAnalysis is substituted for any photo whose classification failed.
func DefaultPhotoAnalysis() PhotoAnalysis {
	return PhotoAnalysis{
		RoomType:     RoomOther,
		Features:     []string{},
		QualityScore: 5,
		SuggestedUse: UseGallery,
		Condition:    ConditionGood,
		Confidence:   0,
		Description:  "Analysis failed",
	}
}

// PhotoAnalysisSummary aggregates a batch of analyses.
type PhotoAnalysisSummary struct {
	TotalPhotos      int              `json:"totalPhotos"`
	DetectedFeatures []string         `json:"detectedFeatures"`
	RoomCounts       map[RoomType]int `json:"roomCounts"`
	BestCoverPhoto   *int             `json:"bestCoverPhoto,omitempty"`
	AverageQuality   float64          `json:"averageQuality"`
}

// Insights are coarse property facts derived from a summary.
type Insights struct {
	EstimatedBedrooms  int      `json:"estimatedBedrooms"`
	EstimatedBathrooms int      `json:"estimatedBathrooms"`
	Style              string   `json:"style"`
	Highlights         []string `json:"highlights"`
	PhotoQuality       string   `json:"photoQuality"`
}

// Image is one photo payload handed to the classifier. Err is set when the
// photo could not be fetched; the analyzer then records the default analysis
// without calling the classifier so batch indexes stay aligned.
type Image struct {
	Handle   string
	MIMEType string
	Data     []byte
	Err      error
}

// Classifier classifies one photo.
type Classifier interface {
	Classify(ctx context.Context, img Image) (PhotoAnalysis, error)
}
