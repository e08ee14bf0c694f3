package agent

import (
	"fmt"
	"strings"

	"property_portal_backend/internal/listings/analysis"
	"property_portal_backend/internal/listings/ports"
)

func photoClassifierSystemPrompt() string {
	return "You are a real-estate photo analyst. You classify one listing photo at a time and answer only with a strict JSON object."
}

func buildPhotoClassificationPrompt(catalog FeatureCatalog) string {
	rooms := make([]string, len(analysis.RoomTypes))
	for i, r := range analysis.RoomTypes {
		rooms[i] = string(r)
	}

	return fmt.Sprintf(`Analyze this property photo.

Room type (pick exactly one): %s

Known feature tags (prefer these, add others only when clearly visible):
%s

Quality score rubric (integer 1-10):
- 9-10: professional photography, perfect lighting and composition
- 7-8: good quality, well lit, clear
- 5-6: acceptable, usable for the listing
- 3-4: poor lighting or composition
- 1-2: unusable (blurry, dark, obstructed)

Suggested use:
- cover-photo: exterior shots or the best interior shots
- gallery: usable photos
- skip: unusable photos

Condition: excellent, good, fair or poor.

Return ONLY a JSON object with this exact shape:
{"roomType": "<room type>", "features": ["<tag>", ...], "qualityScore": <1-10>, "suggestedUse": "<cover-photo|gallery|skip>", "condition": "<excellent|good|fair|poor>", "confidence": <0.0-1.0>, "description": "<one short sentence>"}`,
		strings.Join(rooms, ", "), catalog.PromptBlock())
}

func descriptionSystemPrompt() string {
	return "You are an experienced listing copywriter. You write warm, accurate property descriptions without inventing facts."
}

func buildDescriptionPrompt(input ports.DescriptionInput) string {
	features := "none detected"
	if len(input.Features) > 0 {
		features = strings.Join(input.Features, ", ")
	}
	price := "not set"
	if input.Price != nil {
		price = fmt.Sprintf("$%.0f", *input.Price)
	}

	return fmt.Sprintf(`Property:
- Address: %s
- Price: %s
- Estimated bedrooms: %d
- Estimated bathrooms: %d
- Style: %s
- Features: %s

Task:
Write a listing description of two or three short paragraphs.
Rules:
- Output plain text only, no markdown headings.
- Mention only the facts above.
- Do not state square footage or room sizes.`,
		formatAddress(input), price, input.Bedrooms, input.Bathrooms, input.Style, features)
}

func formatAddress(input ports.DescriptionInput) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{input.Address, input.City, input.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "not provided"
	}
	return strings.Join(parts, ", ")
}
