package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/model"
)

// ChartDataTTL bounds how stale a cached chart snapshot may get when no
// refresh event arrives.
const ChartDataTTL = 5 * time.Minute

// ReportCacheRepository caches the computed chart snapshot in Redis.
type ReportCacheRepository struct {
	rdb *redis.Client
}

// NewReportCacheRepository creates a new ReportCacheRepository.
func NewReportCacheRepository(rdb *redis.Client) *ReportCacheRepository {
	return &ReportCacheRepository{rdb: rdb}
}

// GetChartData returns the cached snapshot, or nil on a cache miss.
func (r *ReportCacheRepository) GetChartData(ctx context.Context) (*model.ChartData, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.ChartDataKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var data model.ChartData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetChartData stores the snapshot.
func (r *ReportCacheRepository) SetChartData(ctx context.Context, data *model.ChartData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, config.CacheKey.ChartDataKey(), raw, ChartDataTTL).Err()
}

// InvalidateChartData drops the snapshot.
func (r *ReportCacheRepository) InvalidateChartData(ctx context.Context) error {
	return r.rdb.Del(ctx, config.CacheKey.ChartDataKey()).Err()
}
