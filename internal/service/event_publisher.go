package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/model"
)

// RedisEventPublisher publishes survey events on the Redis events channel for
// live listeners and queues them for the report worker.
type RedisEventPublisher struct {
	rdb *redis.Client
}

// NewRedisEventPublisher creates a new RedisEventPublisher.
func NewRedisEventPublisher(rdb *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{rdb: rdb}
}

// Publish sends the event to both the pub/sub channel and the refresh queue.
func (p *RedisEventPublisher) Publish(ctx context.Context, event model.SurveyEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, config.CacheKey.SurveyEventsChannel(), payload)
	pipe.RPush(ctx, config.WorkerKey.ReportRefreshQueue, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, model.SurveyEvent) error { return nil }
