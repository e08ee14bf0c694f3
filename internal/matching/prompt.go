package matching

import (
	"fmt"
	"strings"
)

const scoringSystemPrompt = "You are a real-estate matching analyst. You compare a buyer's stated preferences with a listing and return a strict JSON score. You never add commentary outside the JSON object."

func buildScoringPrompt(prefs BuyerPreferences, listing ListingAttributes) string {
	return fmt.Sprintf(`Buyer preferences:
- Price range: %s
- Minimum bedrooms: %s
- Minimum bathrooms: %s
- Property types: %s
- Preferred cities: %s
- Must-have features: %s
- Pre-qualified amount: %s

Listing:
- Address: %s, %s, %s
- Price: %s
- Bedrooms: %d
- Bathrooms: %s
- Square feet: %d
- Property type: %s
- Features: %s
- Year built: %s
- Lot size: %s

Scoring criteria (total 100):
- price (0-30): 30 if within range; 15 if below the minimum; above the maximum subtract 1 point per percent over, never below 0; 20 if no range given.
- location (0-20): 20 if the city matches a preferred city; 0 if cities were given and none match; 15 if no city preference.
- propertyType (0-15): 15 on exact match; 5 if types were given and none match; 10 if no preference.
- rooms (0-15): bedrooms up to 8 (minus 2 per missing bedroom, 5 if unset) plus bathrooms up to 7 (minus 2 per missing bathroom, 5 if unset), capped at 15.
- features (0-20): 20 x matched/required must-have features; 15 if none required.

Return ONLY a JSON object with this exact shape:
{"matchScore": <0-100>, "breakdown": {"price": <0-30>, "location": <0-20>, "propertyType": <0-15>, "rooms": <0-15>, "features": <0-20>}, "reasoning": "<one or two sentences>"}`,
		formatPriceRange(prefs.MinPrice, prefs.MaxPrice),
		formatOptionalInt(prefs.Bedrooms),
		formatOptionalInt(prefs.Bathrooms),
		formatList(prefs.PropertyTypes),
		formatList(prefs.Cities),
		formatList(prefs.MustHaveFeatures),
		formatOptionalMoney(prefs.PreQualificationAmount),
		valueOrUnknown(listing.Address), valueOrUnknown(listing.City), valueOrUnknown(listing.State),
		formatMoney(listing.Price),
		listing.Bedrooms,
		formatFloat(listing.Bathrooms),
		listing.SquareFeet,
		valueOrUnknown(listing.PropertyType),
		formatList(listing.Features),
		formatOptionalInt(listing.YearBuilt),
		formatOptionalFloat(listing.LotSize),
	)
}

func formatPriceRange(minPrice, maxPrice *float64) string {
	switch {
	case minPrice == nil && maxPrice == nil:
		return "any"
	case minPrice == nil:
		return "up to " + formatMoney(*maxPrice)
	case maxPrice == nil:
		return "from " + formatMoney(*minPrice)
	default:
		return formatMoney(*minPrice) + " - " + formatMoney(*maxPrice)
	}
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.0f", v)
}

func formatOptionalMoney(v *float64) string {
	if v == nil {
		return "not provided"
	}
	return formatMoney(*v)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return "not specified"
	}
	return fmt.Sprintf("%d", *v)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return "not specified"
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func formatList(values []string) string {
	values = nonEmpty(values)
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func valueOrUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unknown"
	}
	return strings.TrimSpace(v)
}
