// Package metrics provides Prometheus collectors for the AI-backed pipelines.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

var (
	// MatchScoringTotal counts match score calculations.
	// Labels: source (ai, deterministic)
	MatchScoringTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "scoring_total",
			Help:      "Total number of match scores produced, by the path that produced them",
		},
		[]string{"source"},
	)

	// PhotoClassificationTotal counts single-photo classifications.
	// Labels: result (success, default)
	PhotoClassificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listings",
			Name:      "photo_classifications_total",
			Help:      "Total number of photo classifications, by outcome",
		},
		[]string{"result"},
	)

	// DraftAnalysisDuration tracks end-to-end draft analysis time.
	DraftAnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "listings",
			Name:      "draft_analysis_duration_seconds",
			Help:      "Duration of full draft analysis runs in seconds",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		},
	)

	// DescriptionFallbackTotal counts generic descriptions used in place of
	// generated text.
	DescriptionFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listings",
			Name:      "description_fallback_total",
			Help:      "Total number of drafts that received the generic description",
		},
	)
)
