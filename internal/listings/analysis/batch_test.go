package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property_portal_backend/platform/apperr"
)

type fakeClassifier struct {
	mu       sync.Mutex
	calls    []string
	classify func(img Image) (PhotoAnalysis, error)
}

func (f *fakeClassifier) Classify(_ context.Context, img Image) (PhotoAnalysis, error) {
	f.mu.Lock()
	f.calls = append(f.calls, img.Handle)
	f.mu.Unlock()
	return f.classify(img)
}

func fastOptions(concurrency int) BatchOptions {
	return BatchOptions{Interval: time.Millisecond, Concurrency: concurrency}
}

func images(n int) []Image {
	out := make([]Image, n)
	for i := range out {
		out[i] = Image{Handle: "photo-" + strconv.Itoa(i), MIMEType: "image/jpeg", Data: []byte{byte(i)}}
	}
	return out
}

func TestAnalyzeBatchSubstitutesDefaultForFailedPhoto(t *testing.T) {
	classifier := &fakeClassifier{classify: func(img Image) (PhotoAnalysis, error) {
		if img.Handle == "photo-1" {
			return PhotoAnalysis{}, errors.New("vision service returned garbage")
		}
		return PhotoAnalysis{RoomType: RoomKitchen, Features: []string{"granite countertops"}, QualityScore: 8, SuggestedUse: UseGallery, Condition: ConditionExcellent, Confidence: 0.9}, nil
	}}
	analyzer := NewBatchAnalyzer(classifier, fastOptions(1), nil)

	results, summary, err := analyzer.AnalyzeBatch(context.Background(), images(3))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, DefaultPhotoAnalysis(), results[1])
	assert.Equal(t, RoomKitchen, results[0].RoomType)
	assert.Equal(t, RoomKitchen, results[2].RoomType)
	assert.Equal(t, 3, summary.TotalPhotos)
	assert.InDelta(t, 7.0, summary.AverageQuality, 0.0001)
	assert.Equal(t, []string{"photo-0", "photo-1", "photo-2"}, classifier.calls)
}

func TestAnalyzeBatchRecoversPanics(t *testing.T) {
	classifier := &fakeClassifier{classify: func(img Image) (PhotoAnalysis, error) {
		if img.Handle == "photo-0" {
			panic("nil map")
		}
		return PhotoAnalysis{RoomType: RoomBedroom, QualityScore: 6, SuggestedUse: UseGallery, Condition: ConditionGood}, nil
	}}
	analyzer := NewBatchAnalyzer(classifier, fastOptions(2), nil)

	results, _, err := analyzer.AnalyzeBatch(context.Background(), images(2))
	require.NoError(t, err)
	assert.Equal(t, DefaultPhotoAnalysis(), results[0])
	assert.Equal(t, RoomBedroom, results[1].RoomType)
}

func TestAnalyzeBatchSkipsUnloadablePhotos(t *testing.T) {
	classifier := &fakeClassifier{classify: func(img Image) (PhotoAnalysis, error) {
		return PhotoAnalysis{RoomType: RoomOffice, QualityScore: 7, SuggestedUse: UseGallery, Condition: ConditionGood}, nil
	}}
	analyzer := NewBatchAnalyzer(classifier, fastOptions(1), nil)

	batch := images(2)
	batch[0].Err = errors.New("object not found")

	results, _, err := analyzer.AnalyzeBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, DefaultPhotoAnalysis(), results[0])
	assert.Equal(t, RoomOffice, results[1].RoomType)
	assert.Equal(t, []string{"photo-1"}, classifier.calls)
}

func TestAnalyzeBatchKeepsInputOrderUnderConcurrency(t *testing.T) {
	classifier := &fakeClassifier{classify: func(img Image) (PhotoAnalysis, error) {
		return PhotoAnalysis{RoomType: RoomOther, Description: img.Handle, QualityScore: 5, SuggestedUse: UseGallery, Condition: ConditionGood}, nil
	}}
	analyzer := NewBatchAnalyzer(classifier, fastOptions(4), nil)

	results, _, err := analyzer.AnalyzeBatch(context.Background(), images(10))
	require.NoError(t, err)
	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("photo-%d", i), r.Description)
	}
}

func TestAnalyzeBatchCancelledContextStillReturnsFullBatch(t *testing.T) {
	classifier := &fakeClassifier{classify: func(img Image) (PhotoAnalysis, error) {
		return PhotoAnalysis{RoomType: RoomKitchen, QualityScore: 9}, nil
	}}
	analyzer := NewBatchAnalyzer(classifier, fastOptions(1), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, summary, err := analyzer.AnalyzeBatch(ctx, images(3))
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, DefaultPhotoAnalysis(), r)
	}
	assert.Equal(t, 3, summary.TotalPhotos)
	assert.Empty(t, classifier.calls)
}

func TestAnalyzeBatchRejectsEmptyBatch(t *testing.T) {
	analyzer := NewBatchAnalyzer(&fakeClassifier{}, fastOptions(1), nil)

	_, _, err := analyzer.AnalyzeBatch(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))
}

func TestSummarize(t *testing.T) {
	analyses := []PhotoAnalysis{
		{RoomType: RoomExterior, Features: []string{"front porch", "mature trees"}, QualityScore: 7, SuggestedUse: UseGallery},
		{RoomType: RoomKitchen, Features: []string{"granite countertops", "front porch"}, QualityScore: 8, SuggestedUse: UseGallery},
		{RoomType: RoomLivingRoom, Features: []string{"fireplace"}, QualityScore: 9, SuggestedUse: UseCoverPhoto},
		{RoomType: RoomBedroom, QualityScore: 6, SuggestedUse: UseGallery},
		{RoomType: RoomBedroom, QualityScore: 4, SuggestedUse: UseGallery},
		{RoomType: RoomOther, QualityScore: 2, SuggestedUse: UseSkip},
		{RoomType: RoomExterior, QualityScore: 9, SuggestedUse: UseGallery},
	}

	summary := Summarize(analyses)

	assert.Equal(t, 7, summary.TotalPhotos)
	assert.Equal(t, []string{"front porch", "mature trees", "granite countertops", "fireplace"}, summary.DetectedFeatures)
	assert.Equal(t, map[RoomType]int{RoomKitchen: 1, RoomLivingRoom: 1, RoomBedroom: 2}, summary.RoomCounts)
	require.NotNil(t, summary.BestCoverPhoto)
	assert.Equal(t, 2, *summary.BestCoverPhoto, "earlier photo wins the quality tie")
	assert.InDelta(t, 45.0/7.0, summary.AverageQuality, 0.0001)
}

func TestSummarizeWithoutCoverCandidates(t *testing.T) {
	summary := Summarize([]PhotoAnalysis{{RoomType: RoomKitchen, QualityScore: 8}})
	assert.Nil(t, summary.BestCoverPhoto)
}

func TestSummarizeAverageIsArithmeticMean(t *testing.T) {
	for n := 1; n <= 20; n++ {
		analyses := make([]PhotoAnalysis, n)
		sum := 0
		for i := range analyses {
			q := (i*7+n)%10 + 1
			analyses[i] = PhotoAnalysis{RoomType: RoomOther, QualityScore: q}
			sum += q
		}
		summary := Summarize(analyses)
		assert.InDelta(t, float64(sum)/float64(n), summary.AverageQuality, 1e-9)
	}
}

func TestAnalyzeBatchSpacesClassifierCalls(t *testing.T) {
	const interval = 20 * time.Millisecond

	var (
		mu    sync.Mutex
		times []time.Time
	)
	classifier := &fakeClassifier{classify: func(Image) (PhotoAnalysis, error) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		return PhotoAnalysis{RoomType: RoomKitchen, QualityScore: 7, SuggestedUse: UseGallery, Condition: ConditionGood}, nil
	}}
	analyzer := NewBatchAnalyzer(classifier, BatchOptions{Interval: interval, Concurrency: 2}, nil)

	_, _, err := analyzer.AnalyzeBatch(context.Background(), images(3))
	require.NoError(t, err)
	require.Len(t, times, 3)

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	// scheduler jitter
	const slack = 5 * time.Millisecond
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), interval-slack, "gap before call %d", i)
	}
	assert.GreaterOrEqual(t, times[2].Sub(times[0]), 2*interval-slack)
}
