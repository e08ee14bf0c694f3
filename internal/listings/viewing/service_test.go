package viewing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property_portal_backend/internal/listings/repository"
	"property_portal_backend/internal/matching"
	"property_portal_backend/platform/apperr"
)

type memoryStore struct {
	mu       sync.Mutex
	views    map[uuid.UUID]repository.PropertyView
	prefs    map[uuid.UUID]matching.BuyerPreferences
	listings map[uuid.UUID]matching.ListingAttributes
	patches  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		views:    map[uuid.UUID]repository.PropertyView{},
		prefs:    map[uuid.UUID]matching.BuyerPreferences{},
		listings: map[uuid.UUID]matching.ListingAttributes{},
	}
}

func (m *memoryStore) CreateView(_ context.Context, view repository.PropertyView) (repository.PropertyView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	view.ID = uuid.New()
	view.ViewedAt = time.Now()
	m.views[view.ID] = view
	return view, nil
}

func (m *memoryStore) GetView(_ context.Context, _ uuid.UUID, viewID uuid.UUID) (repository.PropertyView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.views[viewID]
	if !ok {
		return repository.PropertyView{}, repository.ErrViewNotFound
	}
	return v, nil
}

func (m *memoryStore) PatchViewMatch(_ context.Context, _ uuid.UUID, viewID uuid.UUID, result matching.MatchResult) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.views[viewID]
	if !ok {
		return false, repository.ErrViewNotFound
	}
	if v.MatchCalculatedAt != nil && v.MatchCalculatedAt.After(result.CalculatedAt) {
		return false, nil
	}
	at := result.CalculatedAt
	v.Match = &result
	v.MatchCalculatedAt = &at
	m.views[viewID] = v
	m.patches++
	return true, nil
}

func (m *memoryStore) GetBuyerPreferences(_ context.Context, _ uuid.UUID, id uuid.UUID) (matching.BuyerPreferences, error) {
	p, ok := m.prefs[id]
	if !ok {
		return matching.BuyerPreferences{}, repository.ErrBuyerSessionNotFound
	}
	return p, nil
}

func (m *memoryStore) GetListingAttributes(_ context.Context, _ uuid.UUID, id uuid.UUID) (matching.ListingAttributes, error) {
	l, ok := m.listings[id]
	if !ok {
		return matching.ListingAttributes{}, repository.ErrListingNotFound
	}
	return l, nil
}

func (m *memoryStore) ListingExists(_ context.Context, _ uuid.UUID, id uuid.UUID) (bool, error) {
	_, ok := m.listings[id]
	return ok, nil
}

type recordingScheduler struct {
	enqueued []uuid.UUID
	err      error
}

func (r *recordingScheduler) EnqueueViewScoring(_ context.Context, _ uuid.UUID, viewID uuid.UUID) error {
	r.enqueued = append(r.enqueued, viewID)
	return r.err
}

type fixedScorer struct {
	result matching.MatchResult
	calls  int
}

func (f *fixedScorer) Score(context.Context, matching.BuyerPreferences, matching.ListingAttributes) matching.MatchResult {
	f.calls++
	return f.result
}

var tenant = uuid.MustParse("22222222-2222-2222-2222-222222222222")

func seededStore() (*memoryStore, uuid.UUID, uuid.UUID) {
	store := newMemoryStore()
	listingID := uuid.New()
	buyerID := uuid.New()
	store.listings[listingID] = matching.ListingAttributes{City: "Austin", Price: 500000}
	store.prefs[buyerID] = matching.BuyerPreferences{Cities: []string{"Austin"}}
	return store, listingID, buyerID
}

func TestOnPropertyViewedSchedulesScoringForBuyer(t *testing.T) {
	store, listingID, buyerID := seededStore()
	scheduler := &recordingScheduler{}
	svc := New(store, store, &fixedScorer{}, nil)
	svc.SetScheduler(scheduler)

	viewID, err := svc.OnPropertyViewed(context.Background(), tenant, &buyerID, listingID, repository.ViewMetrics{DurationSeconds: 42})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{viewID}, scheduler.enqueued)
	stored := store.views[viewID]
	assert.Nil(t, stored.Match)
	assert.Equal(t, 42, stored.Metrics.DurationSeconds)
}

func TestOnPropertyViewedAnonymousSkipsScoring(t *testing.T) {
	store, listingID, _ := seededStore()
	scheduler := &recordingScheduler{}
	svc := New(store, store, &fixedScorer{}, nil)
	svc.SetScheduler(scheduler)

	_, err := svc.OnPropertyViewed(context.Background(), tenant, nil, listingID, repository.ViewMetrics{})
	require.NoError(t, err)
	assert.Empty(t, scheduler.enqueued)
}

func TestOnPropertyViewedIgnoresEnqueueFailure(t *testing.T) {
	store, listingID, buyerID := seededStore()
	svc := New(store, store, &fixedScorer{}, nil)
	svc.SetScheduler(&recordingScheduler{err: errors.New("redis down")})

	viewID, err := svc.OnPropertyViewed(context.Background(), tenant, &buyerID, listingID, repository.ViewMetrics{})
	require.NoError(t, err)
	assert.Contains(t, store.views, viewID)
}

func TestOnPropertyViewedUnknownListing(t *testing.T) {
	store, _, buyerID := seededStore()
	svc := New(store, store, &fixedScorer{}, nil)

	_, err := svc.OnPropertyViewed(context.Background(), tenant, &buyerID, uuid.New(), repository.ViewMetrics{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Empty(t, store.views)
}

func TestScoreViewPatchesResult(t *testing.T) {
	store, listingID, buyerID := seededStore()
	now := time.Now().UTC()
	scorer := &fixedScorer{result: matching.MatchResult{Score: 77, CalculatedAt: now, Source: matching.SourceAI}}
	svc := New(store, store, scorer, nil)

	viewID, err := svc.OnPropertyViewed(context.Background(), tenant, &buyerID, listingID, repository.ViewMetrics{})
	require.NoError(t, err)

	require.NoError(t, svc.ScoreView(context.Background(), tenant, viewID))
	require.NoError(t, svc.ScoreView(context.Background(), tenant, viewID))

	stored := store.views[viewID]
	require.NotNil(t, stored.Match)
	assert.Equal(t, 77, stored.Match.Score)
	assert.Equal(t, 2, store.patches)
}

func TestScoreViewKeepsNewerResult(t *testing.T) {
	store, listingID, buyerID := seededStore()
	newer := time.Now().UTC()
	svc := New(store, store, &fixedScorer{result: matching.MatchResult{Score: 90, CalculatedAt: newer}}, nil)
	viewID, err := svc.OnPropertyViewed(context.Background(), tenant, &buyerID, listingID, repository.ViewMetrics{})
	require.NoError(t, err)
	require.NoError(t, svc.ScoreView(context.Background(), tenant, viewID))

	stale := New(store, store, &fixedScorer{result: matching.MatchResult{Score: 10, CalculatedAt: newer.Add(-time.Minute)}}, nil)
	require.NoError(t, stale.ScoreView(context.Background(), tenant, viewID))

	assert.Equal(t, 90, store.views[viewID].Match.Score)
}

func TestScoreViewWithRealScorerFallsBackDeterministically(t *testing.T) {
	store, listingID, buyerID := seededStore()
	svc := New(store, store, matching.NewAIScorer(nil, nil, nil), nil)
	viewID, err := svc.OnPropertyViewed(context.Background(), tenant, &buyerID, listingID, repository.ViewMetrics{})
	require.NoError(t, err)

	require.NoError(t, svc.ScoreView(context.Background(), tenant, viewID))

	stored := store.views[viewID]
	require.NotNil(t, stored.Match)
	assert.Equal(t, matching.SourceDeterministic, stored.Match.Source)
	assert.Equal(t, 20, stored.Match.Breakdown.Location)
}

func TestScoreViewSkipsMissingInputs(t *testing.T) {
	store, listingID, _ := seededStore()
	scorer := &fixedScorer{}
	svc := New(store, store, scorer, nil)

	ghost := uuid.New()
	viewID, err := svc.OnPropertyViewed(context.Background(), tenant, &ghost, listingID, repository.ViewMetrics{})
	require.NoError(t, err)

	require.NoError(t, svc.ScoreView(context.Background(), tenant, viewID))
	assert.Zero(t, scorer.calls)
	assert.Nil(t, store.views[viewID].Match)

	err = svc.ScoreView(context.Background(), tenant, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
