package matching

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func scenarioPreferences() BuyerPreferences {
	return BuyerPreferences{
		MinPrice:         ptr(500000.0),
		MaxPrice:         ptr(900000.0),
		Bedrooms:         ptr(3),
		Bathrooms:        ptr(2),
		PropertyTypes:    []string{"single-family"},
		Cities:           []string{"Austin"},
		MustHaveFeatures: []string{"Garage", "Pool"},
	}
}

func scenarioListing() ListingAttributes {
	return ListingAttributes{
		Price:        850000,
		Bedrooms:     3,
		Bathrooms:    2,
		City:         "Austin",
		PropertyType: "single-family",
		Features:     []string{"Garage", "Pool", "Patio"},
	}
}

func TestScorePerfectMatch(t *testing.T) {
	result := Score(scenarioPreferences(), scenarioListing())

	assert.Equal(t, Breakdown{Price: 30, Location: 20, PropertyType: 15, Rooms: 15, Features: 20}, result.Breakdown)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, SourceDeterministic, result.Source)
	assert.NotEmpty(t, result.Reasoning)
	assert.False(t, result.CalculatedAt.IsZero())
}

func TestScoreOverBudgetPenalty(t *testing.T) {
	listing := scenarioListing()
	listing.Price = 1000000

	result := Score(scenarioPreferences(), listing)

	assert.Equal(t, 19, result.Breakdown.Price)
	assert.Equal(t, 20, result.Breakdown.Location)
	assert.Equal(t, 15, result.Breakdown.PropertyType)
	assert.Equal(t, 15, result.Breakdown.Rooms)
	assert.Equal(t, 20, result.Breakdown.Features)
	assert.Equal(t, 89, result.Score)
}

func TestScorePrice(t *testing.T) {
	tests := []struct {
		name  string
		min   *float64
		max   *float64
		price float64
		want  int
	}{
		{name: "no bounds", price: 1, want: 20},
		{name: "within", min: ptr(100.0), max: ptr(200.0), price: 150, want: 30},
		{name: "on max", min: ptr(100.0), max: ptr(200.0), price: 200, want: 30},
		{name: "below min", min: ptr(100.0), max: ptr(200.0), price: 50, want: 15},
		{name: "far over max floors at zero", max: ptr(100.0), price: 300, want: 0},
		{name: "only min satisfied", min: ptr(100.0), price: 5000, want: 30},
		{name: "only max satisfied", max: ptr(100.0), price: 10, want: 30},
		{name: "zero max", max: ptr(0.0), price: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorePrice(BuyerPreferences{MinPrice: tt.min, MaxPrice: tt.max}, tt.price)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreLocationAndType(t *testing.T) {
	assert.Equal(t, 20, scoreLocation([]string{"austin"}, "AUSTIN"))
	assert.Equal(t, 0, scoreLocation([]string{"Dallas"}, "Austin"))
	assert.Equal(t, 15, scoreLocation(nil, "Austin"))
	assert.Equal(t, 15, scoreLocation([]string{"  "}, "Austin"))

	assert.Equal(t, 15, scorePropertyType([]string{"Condo", "single-family"}, "single-family"))
	assert.Equal(t, 5, scorePropertyType([]string{"condo"}, "single-family"))
	assert.Equal(t, 10, scorePropertyType(nil, "single-family"))
}

func TestScoreRooms(t *testing.T) {
	tests := []struct {
		name      string
		bedrooms  *int
		bathrooms *int
		listing   ListingAttributes
		want      int
	}{
		{name: "no preference", listing: ListingAttributes{Bedrooms: 1, Bathrooms: 1}, want: 10},
		{name: "one bedroom short", bedrooms: ptr(4), bathrooms: ptr(2), listing: ListingAttributes{Bedrooms: 3, Bathrooms: 2}, want: 13},
		{name: "large deficit floors at zero", bedrooms: ptr(9), bathrooms: ptr(9), listing: ListingAttributes{Bedrooms: 1, Bathrooms: 1}, want: 0},
		{name: "half bath short", bathrooms: ptr(2), listing: ListingAttributes{Bathrooms: 1.5}, want: 11},
		{name: "bedrooms only", bedrooms: ptr(2), listing: ListingAttributes{Bedrooms: 5}, want: 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreRooms(BuyerPreferences{Bedrooms: tt.bedrooms, Bathrooms: tt.bathrooms}, tt.listing)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreFeatures(t *testing.T) {
	assert.Equal(t, 15, scoreFeatures(nil, []string{"Pool"}))
	assert.Equal(t, 20, scoreFeatures([]string{"pool"}, []string{"Heated Pool"}))
	assert.Equal(t, 20, scoreFeatures([]string{"two-car garage"}, []string{"Garage"}))
	assert.Equal(t, 6, scoreFeatures([]string{"Pool", "Garage", "Basement"}, []string{"Pool"}))
	assert.Equal(t, 0, scoreFeatures([]string{"Pool"}, nil))
	assert.Equal(t, 0, scoreFeatures([]string{"Pool"}, []string{""}))
}

func TestScoreTotalEqualsSumOfBreakdown(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cities := []string{"Austin", "Dallas", "Houston", ""}
	types := []string{"condo", "single-family", "townhouse", ""}
	features := []string{"Pool", "Garage", "Patio", "Fireplace", "Basement"}

	pick := func(values []string) []string {
		out := []string{}
		for _, v := range values {
			if rng.Intn(2) == 0 {
				out = append(out, v)
			}
		}
		return out
	}

	for i := 0; i < 500; i++ {
		prefs := BuyerPreferences{
			PropertyTypes:    pick(types),
			Cities:           pick(cities),
			MustHaveFeatures: pick(features),
		}
		if rng.Intn(2) == 0 {
			prefs.MinPrice = ptr(float64(rng.Intn(1000000)))
		}
		if rng.Intn(2) == 0 {
			prefs.MaxPrice = ptr(float64(rng.Intn(2000000)))
		}
		if rng.Intn(2) == 0 {
			prefs.Bedrooms = ptr(rng.Intn(8))
		}
		if rng.Intn(2) == 0 {
			prefs.Bathrooms = ptr(rng.Intn(6))
		}
		listing := ListingAttributes{
			Price:        float64(rng.Intn(3000000)),
			Bedrooms:     rng.Intn(8),
			Bathrooms:    float64(rng.Intn(10)) / 2,
			City:         cities[rng.Intn(len(cities))],
			PropertyType: types[rng.Intn(len(types))],
			Features:     pick(features),
		}

		result := Score(prefs, listing)
		require.Equal(t, result.Breakdown.Total(), result.Score)
		require.GreaterOrEqual(t, result.Score, 0)
		require.LessOrEqual(t, result.Score, 100)
		require.LessOrEqual(t, result.Breakdown.Price, MaxPriceScore)
		require.LessOrEqual(t, result.Breakdown.Location, MaxLocationScore)
		require.LessOrEqual(t, result.Breakdown.PropertyType, MaxPropertyTypeScore)
		require.LessOrEqual(t, result.Breakdown.Rooms, MaxRoomsScore)
		require.LessOrEqual(t, result.Breakdown.Features, MaxFeaturesScore)
		require.GreaterOrEqual(t, result.Breakdown.Price, 0)
		require.GreaterOrEqual(t, result.Breakdown.Rooms, 0)
	}
}
