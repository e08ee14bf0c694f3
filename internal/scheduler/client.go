package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"property_portal_backend/platform/config"
)

const (
	viewScoringDelay   = time.Second
	viewScoringTimeout = 2 * time.Minute
	viewScoringRetries = 5

	draftAnalysisTimeout = 15 * time.Minute
	draftAnalysisRetries = 2
)

// Client enqueues listing-intelligence jobs on asynq.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueViewScoring schedules match scoring for a stored view.
func (c *Client) EnqueueViewScoring(ctx context.Context, tenantID, viewID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewScoreViewTask(ScoreViewPayload{ViewID: viewID.String(), TenantID: tenantID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.ProcessIn(viewScoringDelay),
		asynq.MaxRetry(viewScoringRetries),
		asynq.Timeout(viewScoringTimeout),
	)
	return err
}

// EnqueueDraftAnalysis schedules a full draft analysis run.
func (c *Client) EnqueueDraftAnalysis(ctx context.Context, tenantID, draftID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewAnalyzeDraftTask(AnalyzeDraftPayload{DraftID: draftID.String(), TenantID: tenantID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(draftAnalysisRetries),
		asynq.Timeout(draftAnalysisTimeout),
	)
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
