package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/metrics"
)

// DefaultInterval keeps the vision service under its per-caller rate ceiling.
const DefaultInterval = 1100 * time.Millisecond

// BatchOptions tunes pacing. Zero values fall back to DefaultInterval and a
// single worker.
type BatchOptions struct {
	Interval    time.Duration
	Concurrency int
}

// BatchAnalyzer classifies photos through a bounded worker pool that shares
// one token bucket, so the classifier is never called faster than Interval
// regardless of concurrency.
type BatchAnalyzer struct {
	classifier  Classifier
	limiter     *rate.Limiter
	concurrency int
	log         *logger.Logger
}

// NewBatchAnalyzer creates a batch analyzer. The limiter is shared by every
// batch this analyzer runs.
func NewBatchAnalyzer(classifier Classifier, opts BatchOptions, log *logger.Logger) *BatchAnalyzer {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logger.Discard()
	}
	return &BatchAnalyzer{
		classifier:  classifier,
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		concurrency: concurrency,
		log:         log,
	}
}

// AnalyzeBatch classifies every image and aggregates the results. The returned
// slice always has one entry per input image in input order; failed photos
// carry DefaultPhotoAnalysis. The only error is an empty batch.
func (a *BatchAnalyzer) AnalyzeBatch(ctx context.Context, images []Image) ([]PhotoAnalysis, PhotoAnalysisSummary, error) {
	if len(images) == 0 {
		return nil, PhotoAnalysisSummary{}, apperr.Precondition("no photos to analyze")
	}

	results := make([]PhotoAnalysis, len(images))
	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, img := range images {
		g.Go(func() error {
			results[i] = a.classifyOne(ctx, i, img)
			return nil
		})
	}
	_ = g.Wait()

	return results, Summarize(results), nil
}

func (a *BatchAnalyzer) classifyOne(ctx context.Context, index int, img Image) (analysis PhotoAnalysis) {
	log := a.log.WithContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.PhotoClassificationFailed(index, img.Handle, fmt.Errorf("panic: %v", r))
			metrics.PhotoClassificationTotal.WithLabelValues("default").Inc()
			analysis = DefaultPhotoAnalysis()
		}
	}()

	fail := func(err error) PhotoAnalysis {
		log.PhotoClassificationFailed(index, img.Handle, err)
		metrics.PhotoClassificationTotal.WithLabelValues("default").Inc()
		return DefaultPhotoAnalysis()
	}

	if img.Err != nil {
		return fail(fmt.Errorf("load photo: %w", img.Err))
	}
	if a.classifier == nil {
		return fail(fmt.Errorf("no classifier configured"))
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return fail(fmt.Errorf("rate limiter: %w", err))
	}

	result, err := a.classifier.Classify(ctx, img)
	if err != nil {
		return fail(err)
	}

	metrics.PhotoClassificationTotal.WithLabelValues("success").Inc()
	return result
}

// Summarize aggregates analyses in input order. Room counts exclude "other"
// and "exterior". The best cover photo is the highest quality photo that was
// suggested as cover or shows the exterior; the earlier photo wins ties.
func Summarize(analyses []PhotoAnalysis) PhotoAnalysisSummary {
	summary := PhotoAnalysisSummary{
		TotalPhotos:      len(analyses),
		DetectedFeatures: []string{},
		RoomCounts:       map[RoomType]int{},
	}
	if len(analyses) == 0 {
		return summary
	}

	seen := make(map[string]struct{})
	totalQuality := 0
	bestQuality := 0

	for i, pa := range analyses {
		for _, feature := range pa.Features {
			feature = strings.TrimSpace(feature)
			if feature == "" {
				continue
			}
			if _, dup := seen[feature]; dup {
				continue
			}
			seen[feature] = struct{}{}
			summary.DetectedFeatures = append(summary.DetectedFeatures, feature)
		}

		if pa.RoomType != RoomOther && pa.RoomType != RoomExterior {
			summary.RoomCounts[pa.RoomType]++
		}

		if pa.SuggestedUse == UseCoverPhoto || pa.RoomType == RoomExterior {
			if summary.BestCoverPhoto == nil || pa.QualityScore > bestQuality {
				idx := i
				summary.BestCoverPhoto = &idx
				bestQuality = pa.QualityScore
			}
		}

		totalQuality += pa.QualityScore
	}

	summary.AverageQuality = float64(totalQuality) / float64(len(analyses))
	return summary
}
