package agent

import (
	"context"
	"fmt"

	"property_portal_backend/internal/listings/ports"
	"property_portal_backend/platform/ai/completion"
	"property_portal_backend/platform/sanitize"
)

const (
	descriptionTemperature = 0.7
	descriptionMaxTokens   = 700
)

// DescriptionGenerator writes listing descriptions from draft insights.
type DescriptionGenerator struct {
	completion completion.Service
}

func NewDescriptionGenerator(svc completion.Service) *DescriptionGenerator {
	return &DescriptionGenerator{completion: svc}
}

func (g *DescriptionGenerator) GenerateDescription(ctx context.Context, input ports.DescriptionInput) (string, error) {
	text, err := g.completion.Complete(ctx, completion.Request{
		System:      descriptionSystemPrompt(),
		Prompt:      buildDescriptionPrompt(input),
		Temperature: descriptionTemperature,
		MaxTokens:   descriptionMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate description: %w", err)
	}
	text = sanitize.Text(text)
	if text == "" {
		return "", fmt.Errorf("generate description: %w", completion.ErrEmptyResponse)
	}
	return text, nil
}

var _ ports.DescriptionGenerator = (*DescriptionGenerator)(nil)
