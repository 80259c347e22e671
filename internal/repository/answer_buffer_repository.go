package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/survey-backend/internal/config"
)

// AnswerBufferRepository keeps a respondent's unsubmitted answers in one Redis
// hash: field = category code, value = JSON object of question code -> score.
type AnswerBufferRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAnswerBufferRepository creates a new AnswerBufferRepository. The hash
// expires ttl after the last write.
func NewAnswerBufferRepository(rdb *redis.Client, ttl time.Duration) *AnswerBufferRepository {
	return &AnswerBufferRepository{rdb: rdb, ttl: ttl}
}

// Put replaces the buffered answers of one category and refreshes the TTL.
func (r *AnswerBufferRepository) Put(ctx context.Context, respondentID int, category string, answers map[string]int) error {
	payload, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	key := config.CacheKey.RespondentAnswersKey(respondentID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, category, payload)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("buffer answers: %w", err)
	}
	return nil
}

// Get returns the buffered answers of one category, or an empty map.
func (r *AnswerBufferRepository) Get(ctx context.Context, respondentID int, category string) (map[string]int, error) {
	raw, err := r.rdb.HGet(ctx, config.CacheKey.RespondentAnswersKey(respondentID), category).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string]int{}, nil
		}
		return nil, fmt.Errorf("read buffer: %w", err)
	}
	return decodeAnswers(raw)
}

// GetAll returns every buffered category for the respondent.
func (r *AnswerBufferRepository) GetAll(ctx context.Context, respondentID int) (map[string]map[string]int, error) {
	fields, err := r.rdb.HGetAll(ctx, config.CacheKey.RespondentAnswersKey(respondentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read buffer: %w", err)
	}

	out := make(map[string]map[string]int, len(fields))
	for category, raw := range fields {
		answers, err := decodeAnswers([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		out[category] = answers
	}
	return out, nil
}

// ClearAll drops every buffered category for the respondent.
func (r *AnswerBufferRepository) ClearAll(ctx context.Context, respondentID int) error {
	return r.rdb.Del(ctx, config.CacheKey.RespondentAnswersKey(respondentID)).Err()
}

// purgeBatch is the SCAN page size used by PurgeAll.
const purgeBatch = 500

// PurgeAll drops the buffered answers of every respondent.
func (r *AnswerBufferRepository) PurgeAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, config.CacheKey.RespondentAnswersPattern(), purgeBatch).Result()
		if err != nil {
			return fmt.Errorf("scan buffers: %w", err)
		}
		if len(keys) > 0 {
			if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete buffers: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func decodeAnswers(raw []byte) (map[string]int, error) {
	answers := map[string]int{}
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return answers, nil
}
