package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskScoreView = "matching.score_view"

const TaskAnalyzeDraft = "drafts.analyze"

type ScoreViewPayload struct {
	ViewID   string `json:"viewId"`
	TenantID string `json:"tenantId"`
}

type AnalyzeDraftPayload struct {
	DraftID  string `json:"draftId"`
	TenantID string `json:"tenantId"`
}

func NewScoreViewTask(payload ScoreViewPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScoreView, data), nil
}

func ParseScoreViewPayload(task *asynq.Task) (ScoreViewPayload, error) {
	var payload ScoreViewPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ScoreViewPayload{}, err
	}
	return payload, nil
}

func NewAnalyzeDraftTask(payload AnalyzeDraftPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyzeDraft, data), nil
}

func ParseAnalyzeDraftPayload(task *asynq.Task) (AnalyzeDraftPayload, error) {
	var payload AnalyzeDraftPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AnalyzeDraftPayload{}, err
	}
	return payload, nil
}

func parseIDs(first, second string) (uuid.UUID, uuid.UUID, error) {
	a, err := uuid.Parse(first)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid id %q: %w", first, err)
	}
	b, err := uuid.Parse(second)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid id %q: %w", second, err)
	}
	return a, b, nil
}
