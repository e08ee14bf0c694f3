package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property_portal_backend/internal/listings/repository"
	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/logger"
)

type recordingViews struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
}

func (r *recordingViews) ScoreView(_ context.Context, _ uuid.UUID, viewID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, viewID)
	return r.err
}

type recordingDrafts struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
}

func (r *recordingDrafts) RunDraftAnalysis(_ context.Context, _ uuid.UUID, draftID uuid.UUID) (repository.DraftAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, draftID)
	return repository.DraftAnalysis{}, r.err
}

func testWorker(views ViewScorer, drafts DraftAnalyzer) *Worker {
	w := &Worker{views: views, drafts: drafts, log: logger.Discard()}
	w.mux = w.routes()
	return w
}

func TestScoreViewTaskRoundTrip(t *testing.T) {
	views := &recordingViews{}
	w := testWorker(views, &recordingDrafts{})
	viewID := uuid.New()

	task, err := NewScoreViewTask(ScoreViewPayload{ViewID: viewID.String(), TenantID: uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, TaskScoreView, task.Type())

	require.NoError(t, w.mux.ProcessTask(context.Background(), task))
	assert.Equal(t, []uuid.UUID{viewID}, views.calls)
}

func TestAnalyzeDraftTaskRoundTrip(t *testing.T) {
	drafts := &recordingDrafts{}
	w := testWorker(&recordingViews{}, drafts)
	draftID := uuid.New()

	task, err := NewAnalyzeDraftTask(AnalyzeDraftPayload{DraftID: draftID.String(), TenantID: uuid.NewString()})
	require.NoError(t, err)

	require.NoError(t, w.mux.ProcessTask(context.Background(), task))
	assert.Equal(t, []uuid.UUID{draftID}, drafts.calls)
}

func TestHandlersSkipRetryOnPermanentErrors(t *testing.T) {
	t.Run("malformed payload", func(t *testing.T) {
		w := testWorker(&recordingViews{}, &recordingDrafts{})
		err := w.handleScoreView(context.Background(), asynq.NewTask(TaskScoreView, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := testWorker(&recordingViews{}, &recordingDrafts{})
		task, err := NewScoreViewTask(ScoreViewPayload{ViewID: "nope", TenantID: uuid.NewString()})
		require.NoError(t, err)
		assert.ErrorIs(t, w.handleScoreView(context.Background(), task), asynq.SkipRetry)
	})

	t.Run("draft without photos", func(t *testing.T) {
		w := testWorker(&recordingViews{}, &recordingDrafts{err: apperr.Precondition("no photos to analyze")})
		task, err := NewAnalyzeDraftTask(AnalyzeDraftPayload{DraftID: uuid.NewString(), TenantID: uuid.NewString()})
		require.NoError(t, err)
		assert.ErrorIs(t, w.handleAnalyzeDraft(context.Background(), task), asynq.SkipRetry)
	})

	t.Run("database error retries", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		w := testWorker(&recordingViews{err: dbErr}, &recordingDrafts{})
		task, err := NewScoreViewTask(ScoreViewPayload{ViewID: uuid.NewString(), TenantID: uuid.NewString()})
		require.NoError(t, err)

		err = w.handleScoreView(context.Background(), task)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestInProcessRunsJobsAfterRequestEnds(t *testing.T) {
	views := &recordingViews{}
	drafts := &recordingDrafts{}
	p := NewInProcess(views, drafts, nil)
	p.delay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	viewID := uuid.New()
	draftID := uuid.New()
	require.NoError(t, p.EnqueueViewScoring(ctx, uuid.New(), viewID))
	require.NoError(t, p.EnqueueDraftAnalysis(ctx, uuid.New(), draftID))
	cancel()

	p.Wait()
	assert.Equal(t, []uuid.UUID{viewID}, views.calls)
	assert.Equal(t, []uuid.UUID{draftID}, drafts.calls)
}

func TestInProcessWithoutHandlers(t *testing.T) {
	p := NewInProcess(nil, nil, nil)
	assert.Error(t, p.EnqueueViewScoring(context.Background(), uuid.New(), uuid.New()))
	assert.Error(t, p.EnqueueDraftAnalysis(context.Background(), uuid.New(), uuid.New()))
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("rediss://:secret@cache.internal:6380/2", true)
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)
	require.NotNil(t, opt.TLSConfig)
	assert.True(t, opt.TLSConfig.InsecureSkipVerify)

	_, err = redisClientOpt("not a url", false)
	assert.Error(t, err)
}
