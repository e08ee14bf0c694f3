package analysis

import "strings"

const (
	defaultBedrooms  = 3
	defaultBathrooms = 2
	maxHighlights    = 8
)

// Style labels.
const (
	StyleModern      = "modern"
	StyleUpdated     = "updated"
	StyleTraditional = "traditional"
)

// Photo quality tiers.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
)

// DeriveInsights applies fixed rules to a batch summary.
func DeriveInsights(summary PhotoAnalysisSummary) Insights {
	bedrooms := summary.RoomCounts[RoomBedroom]
	if bedrooms == 0 {
		bedrooms = defaultBedrooms
	}
	bathrooms := summary.RoomCounts[RoomBathroom]
	if bathrooms == 0 {
		bathrooms = defaultBathrooms
	}

	highlights := summary.DetectedFeatures
	if len(highlights) > maxHighlights {
		highlights = highlights[:maxHighlights]
	}

	return Insights{
		EstimatedBedrooms:  bedrooms,
		EstimatedBathrooms: bathrooms,
		Style:              detectStyle(summary.DetectedFeatures),
		Highlights:         append([]string{}, highlights...),
		PhotoQuality:       qualityTier(summary.AverageQuality),
	}
}

func detectStyle(features []string) string {
	switch {
	case anyFeatureContains(features, "modern", "contemporary"):
		return StyleModern
	case anyFeatureContains(features, "updated", "renovated"):
		return StyleUpdated
	default:
		return StyleTraditional
	}
}

func anyFeatureContains(features []string, needles ...string) bool {
	for _, f := range features {
		lower := strings.ToLower(f)
		for _, needle := range needles {
			if strings.Contains(lower, needle) {
				return true
			}
		}
	}
	return false
}

func qualityTier(average float64) string {
	switch {
	case average > 7:
		return QualityExcellent
	case average > 5:
		return QualityGood
	default:
		return QualityFair
	}
}
