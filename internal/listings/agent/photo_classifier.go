package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"property_portal_backend/internal/listings/analysis"
	"property_portal_backend/platform/ai/completion"
	"property_portal_backend/platform/validator"
)

const (
	classifierTemperature = 0.2
	classifierMaxTokens   = 800
	maxFeaturesPerPhoto   = 15
)

// photoClassificationResponse is the strict schema for a classifier reply.
type photoClassificationResponse struct {
	RoomType     string   `json:"roomType" validate:"required,oneof=bedroom kitchen bathroom living-room dining-room exterior garage basement laundry office other"`
	Features     []string `json:"features" validate:"max=30,dive,max=80"`
	QualityScore *int     `json:"qualityScore" validate:"required,min=1,max=10"`
	SuggestedUse string   `json:"suggestedUse" validate:"required,oneof=cover-photo gallery skip"`
	Condition    string   `json:"condition" validate:"required,oneof=excellent good fair poor"`
	Confidence   *float64 `json:"confidence" validate:"required,min=0,max=1"`
	Description  string   `json:"description" validate:"max=500"`
}

// PhotoClassifier classifies single photos with a vision-capable model.
type PhotoClassifier struct {
	completion completion.Service
	validator  *validator.Validator
	prompt     string
}

// NewPhotoClassifier builds the classifier with the embedded feature catalog.
func NewPhotoClassifier(svc completion.Service, val *validator.Validator) (*PhotoClassifier, error) {
	catalog, err := LoadFeatureCatalog()
	if err != nil {
		return nil, err
	}
	if val == nil {
		val = validator.New()
	}
	return &PhotoClassifier{
		completion: svc,
		validator:  val,
		prompt:     buildPhotoClassificationPrompt(catalog),
	}, nil
}

// Classify returns an error on any transport or schema failure. Callers
// substitute the default analysis.
func (c *PhotoClassifier) Classify(ctx context.Context, img analysis.Image) (analysis.PhotoAnalysis, error) {
	if len(img.Data) == 0 {
		return analysis.PhotoAnalysis{}, fmt.Errorf("classify photo: empty image")
	}

	raw, err := c.completion.Complete(ctx, completion.Request{
		System:      photoClassifierSystemPrompt(),
		Prompt:      c.prompt,
		Image:       &completion.Image{MIMEType: img.MIMEType, Data: img.Data},
		Temperature: classifierTemperature,
		MaxTokens:   classifierMaxTokens,
		JSON:        true,
	})
	if err != nil {
		return analysis.PhotoAnalysis{}, fmt.Errorf("classify photo: %w", err)
	}

	return c.parse(raw)
}

func (c *PhotoClassifier) parse(raw string) (analysis.PhotoAnalysis, error) {
	var resp photoClassificationResponse
	if err := json.Unmarshal([]byte(completion.ExtractJSON(raw)), &resp); err != nil {
		return analysis.PhotoAnalysis{}, fmt.Errorf("classify photo: decode: %w", err)
	}

	resp.RoomType = normalizeTag(resp.RoomType)
	resp.SuggestedUse = normalizeTag(resp.SuggestedUse)
	resp.Condition = normalizeTag(resp.Condition)

	if err := c.validator.Struct(resp); err != nil {
		return analysis.PhotoAnalysis{}, fmt.Errorf("classify photo: %s", validator.Describe(err))
	}

	return analysis.PhotoAnalysis{
		RoomType:     analysis.RoomType(resp.RoomType),
		Features:     normalizeFeatures(resp.Features),
		QualityScore: *resp.QualityScore,
		SuggestedUse: analysis.SuggestedUse(resp.SuggestedUse),
		Condition:    analysis.Condition(resp.Condition),
		Confidence:   *resp.Confidence,
		Description:  strings.TrimSpace(resp.Description),
	}, nil
}

// normalizeTag folds case and separators so "Living Room" and "living_room"
// both become "living-room". Unknown values still fail validation.
func normalizeTag(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, "_", "-")
	return strings.Join(strings.Fields(value), "-")
}

func normalizeFeatures(features []string) []string {
	out := make([]string, 0, len(features))
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		f = strings.ToLower(strings.Join(strings.Fields(f), " "))
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
		if len(out) == maxFeaturesPerPhoto {
			break
		}
	}
	return out
}

var _ analysis.Classifier = (*PhotoClassifier)(nil)
