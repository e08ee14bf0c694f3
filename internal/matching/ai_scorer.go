package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"property_portal_backend/platform/ai/completion"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/metrics"
	"property_portal_backend/platform/sanitize"
	"property_portal_backend/platform/validator"
)

const (
	scoringTemperature = 0.3
	scoringMaxTokens   = 600
)

// aiScoreResponse is the strict contract the model must satisfy. Missing
// fields or negative sub-scores reject the whole reply.
type aiScoreResponse struct {
	MatchScore *float64     `json:"matchScore" validate:"required"`
	Breakdown  *aiBreakdown `json:"breakdown" validate:"required"`
	Reasoning  string       `json:"reasoning" validate:"required"`
}

type aiBreakdown struct {
	Price        *float64 `json:"price" validate:"required,min=0"`
	Location     *float64 `json:"location" validate:"required,min=0"`
	PropertyType *float64 `json:"propertyType" validate:"required,min=0"`
	Rooms        *float64 `json:"rooms" validate:"required,min=0"`
	Features     *float64 `json:"features" validate:"required,min=0"`
}

// AIScorer scores matches through the completion service and falls back to
// the deterministic Score on any failure.
type AIScorer struct {
	completion completion.Service
	validator  *validator.Validator
	log        *logger.Logger
}

// NewAIScorer creates an AI-backed scorer.
func NewAIScorer(svc completion.Service, val *validator.Validator, log *logger.Logger) *AIScorer {
	if val == nil {
		val = validator.New()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &AIScorer{completion: svc, validator: val, log: log}
}

// Score never returns an error. Transport failures, timeouts, malformed JSON,
// schema violations and panics all resolve to the deterministic result.
func (s *AIScorer) Score(ctx context.Context, prefs BuyerPreferences, listing ListingAttributes) (result MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			result = s.fallback(ctx, prefs, listing, "panic", fmt.Errorf("recovered: %v", r))
		}
	}()

	if s.completion == nil {
		return s.fallback(ctx, prefs, listing, "no_completion_service", nil)
	}

	raw, err := s.completion.Complete(ctx, completion.Request{
		System:      scoringSystemPrompt,
		Prompt:      buildScoringPrompt(prefs, listing),
		Temperature: scoringTemperature,
		MaxTokens:   scoringMaxTokens,
		JSON:        true,
	})
	if err != nil {
		return s.fallback(ctx, prefs, listing, "completion_failed", err)
	}

	parsed, err := s.parse(raw)
	if err != nil {
		return s.fallback(ctx, prefs, listing, "invalid_response", err)
	}

	result, clamped := toMatchResult(parsed)
	if clamped {
		s.log.WithContext(ctx).Warn("ai match breakdown clamped to caps",
			slog.Float64("price", *parsed.Breakdown.Price),
			slog.Float64("location", *parsed.Breakdown.Location),
			slog.Float64("propertyType", *parsed.Breakdown.PropertyType),
			slog.Float64("rooms", *parsed.Breakdown.Rooms),
			slog.Float64("features", *parsed.Breakdown.Features),
		)
	}
	metrics.MatchScoringTotal.WithLabelValues(string(SourceAI)).Inc()
	return result
}

func (s *AIScorer) parse(raw string) (aiScoreResponse, error) {
	var parsed aiScoreResponse
	if err := json.Unmarshal([]byte(completion.ExtractJSON(raw)), &parsed); err != nil {
		return aiScoreResponse{}, fmt.Errorf("decode match score: %w", err)
	}
	if err := s.validator.Struct(parsed); err != nil {
		return aiScoreResponse{}, fmt.Errorf("validate match score: %s", validator.Describe(err))
	}
	if strings.TrimSpace(parsed.Reasoning) == "" {
		return aiScoreResponse{}, fmt.Errorf("validate match score: empty reasoning")
	}
	return parsed, nil
}

func (s *AIScorer) fallback(ctx context.Context, prefs BuyerPreferences, listing ListingAttributes, reason string, err error) MatchResult {
	s.log.WithContext(ctx).AIFallback("match_scorer", reason, err)
	metrics.MatchScoringTotal.WithLabelValues(string(SourceDeterministic)).Inc()
	return Score(prefs, listing)
}

// toMatchResult clamps the overall score to [0,100] and each sub-score to its
// cap. The model's breakdown is not renormalized against the overall score.
func toMatchResult(resp aiScoreResponse) (MatchResult, bool) {
	clamped := false
	capAt := func(v float64, limit int) int {
		if v > float64(limit) {
			clamped = true
			return limit
		}
		return int(math.Round(v))
	}

	breakdown := Breakdown{
		Price:        capAt(*resp.Breakdown.Price, MaxPriceScore),
		Location:     capAt(*resp.Breakdown.Location, MaxLocationScore),
		PropertyType: capAt(*resp.Breakdown.PropertyType, MaxPropertyTypeScore),
		Rooms:        capAt(*resp.Breakdown.Rooms, MaxRoomsScore),
		Features:     capAt(*resp.Breakdown.Features, MaxFeaturesScore),
	}

	return MatchResult{
		Score:        int(math.Round(math.Max(0, math.Min(MaxScore, *resp.MatchScore)))),
		Breakdown:    breakdown,
		Reasoning:    sanitize.Text(resp.Reasoning),
		CalculatedAt: nowFunc().UTC(),
		Source:       SourceAI,
	}, clamped
}
