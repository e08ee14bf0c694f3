package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveInsightsDefaults(t *testing.T) {
	insights := DeriveInsights(PhotoAnalysisSummary{TotalPhotos: 1, AverageQuality: 5, RoomCounts: map[RoomType]int{}})

	assert.Equal(t, 3, insights.EstimatedBedrooms)
	assert.Equal(t, 2, insights.EstimatedBathrooms)
	assert.Equal(t, StyleTraditional, insights.Style)
	assert.Equal(t, QualityFair, insights.PhotoQuality)
	assert.Empty(t, insights.Highlights)
}

func TestDeriveInsightsFromCounts(t *testing.T) {
	summary := PhotoAnalysisSummary{
		RoomCounts:       map[RoomType]int{RoomBedroom: 4, RoomBathroom: 3},
		DetectedFeatures: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		AverageQuality:   7.5,
	}

	insights := DeriveInsights(summary)

	assert.Equal(t, 4, insights.EstimatedBedrooms)
	assert.Equal(t, 3, insights.EstimatedBathrooms)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, insights.Highlights)
	assert.Equal(t, QualityExcellent, insights.PhotoQuality)
}

func TestDetectStyle(t *testing.T) {
	tests := []struct {
		features []string
		want     string
	}{
		{[]string{"Renovated bathroom", "Contemporary lighting"}, StyleModern},
		{[]string{"recently updated kitchen"}, StyleUpdated},
		{[]string{"Renovated bathroom"}, StyleUpdated},
		{[]string{"MODERN finishes"}, StyleModern},
		{[]string{"crown molding"}, StyleTraditional},
		{nil, StyleTraditional},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectStyle(tt.features), "%v", tt.features)
	}
}

func TestQualityTierBoundaries(t *testing.T) {
	assert.Equal(t, QualityGood, qualityTier(7))
	assert.Equal(t, QualityExcellent, qualityTier(7.01))
	assert.Equal(t, QualityFair, qualityTier(5))
	assert.Equal(t, QualityGood, qualityTier(5.5))
}
