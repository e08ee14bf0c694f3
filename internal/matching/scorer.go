package matching

import (
	"math"
	"strings"
	"time"
)

const deterministicReasoning = "Score calculated from price fit, location, property type, room counts and must-have features."

// Neutral sub-scores used when the buyer gave no preference for a dimension.
const (
	noPriceBoundsScore    = 20
	belowMinPriceScore    = 15
	noCityPreferenceScore = 15
	noTypePreferenceScore = 10
	typeMismatchScore     = 5
	bedroomScore          = 8
	bathroomScore         = 7
	noRoomPreferenceScore = 5
	noFeatureListScore    = 15
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

// Score computes a deterministic match score. It never fails; missing optional
// fields degrade to neutral sub-scores.
func Score(prefs BuyerPreferences, listing ListingAttributes) MatchResult {
	breakdown := Breakdown{
		Price:        scorePrice(prefs, listing.Price),
		Location:     scoreLocation(prefs.Cities, listing.City),
		PropertyType: scorePropertyType(prefs.PropertyTypes, listing.PropertyType),
		Rooms:        scoreRooms(prefs, listing),
		Features:     scoreFeatures(prefs.MustHaveFeatures, listing.Features),
	}

	return MatchResult{
		Score:        clampScore(breakdown.Total()),
		Breakdown:    breakdown,
		Reasoning:    deterministicReasoning,
		CalculatedAt: nowFunc().UTC(),
		Source:       SourceDeterministic,
	}
}

func scorePrice(prefs BuyerPreferences, price float64) int {
	if prefs.MinPrice == nil && prefs.MaxPrice == nil {
		return noPriceBoundsScore
	}
	if prefs.MinPrice != nil && price < *prefs.MinPrice {
		return belowMinPriceScore
	}
	if prefs.MaxPrice != nil && price > *prefs.MaxPrice {
		maxPrice := *prefs.MaxPrice
		if maxPrice <= 0 {
			return 0
		}
		pctOver := (price - maxPrice) / maxPrice * 100
		return clamp(MaxPriceScore-int(math.Floor(pctOver)), 0, MaxPriceScore)
	}
	return MaxPriceScore
}

func scoreLocation(cities []string, city string) int {
	cities = nonEmpty(cities)
	if len(cities) == 0 {
		return noCityPreferenceScore
	}
	for _, c := range cities {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(city)) {
			return MaxLocationScore
		}
	}
	return 0
}

func scorePropertyType(types []string, propertyType string) int {
	types = nonEmpty(types)
	if len(types) == 0 {
		return noTypePreferenceScore
	}
	for _, t := range types {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(propertyType)) {
			return MaxPropertyTypeScore
		}
	}
	return typeMismatchScore
}

func scoreRooms(prefs BuyerPreferences, listing ListingAttributes) int {
	bedrooms := noRoomPreferenceScore
	if prefs.Bedrooms != nil {
		bedrooms = roomCredit(bedroomScore, float64(*prefs.Bedrooms), float64(listing.Bedrooms))
	}

	bathrooms := noRoomPreferenceScore
	if prefs.Bathrooms != nil {
		bathrooms = roomCredit(bathroomScore, float64(*prefs.Bathrooms), listing.Bathrooms)
	}

	return min(bedrooms+bathrooms, MaxRoomsScore)
}

// roomCredit gives full credit when the listing meets the request and loses
// two points per missing room otherwise.
func roomCredit(full int, requested, actual float64) int {
	if actual >= requested {
		return full
	}
	deficit := requested - actual
	return max(0, int(math.Floor(float64(full)-2*deficit)))
}

func scoreFeatures(mustHave, features []string) int {
	mustHave = nonEmpty(mustHave)
	if len(mustHave) == 0 {
		return noFeatureListScore
	}

	available := make([]string, 0, len(features))
	for _, f := range nonEmpty(features) {
		available = append(available, strings.ToLower(f))
	}

	matched := 0
	for _, want := range mustHave {
		want = strings.ToLower(want)
		for _, have := range available {
			if strings.Contains(have, want) || strings.Contains(want, have) {
				matched++
				break
			}
		}
	}

	return MaxFeaturesScore * matched / len(mustHave)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func clampScore(score int) int {
	return clamp(score, 0, MaxScore)
}

func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}
