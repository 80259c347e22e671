package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/model"
)

const (
	RefreshBatchSize    = 50
	RefreshBatchTimeout = 2 * time.Second
	RefreshPollTimeout  = 1 * time.Second
)

// ChartRefresher recomputes and caches the dashboard chart snapshot.
type ChartRefresher interface {
	RefreshChartData(ctx context.Context) (*model.ChartData, error)
}

// ReportWorker consumes survey events from the report refresh queue and
// recomputes the chart snapshot once per batch instead of once per event.
type ReportWorker struct {
	rdb       *redis.Client
	refresher ChartRefresher
	queue     string
	log       zerolog.Logger
}

// NewReportWorker creates a new ReportWorker.
func NewReportWorker(rdb *redis.Client, refresher ChartRefresher, log zerolog.Logger) *ReportWorker {
	return &ReportWorker{
		rdb:       rdb,
		refresher: refresher,
		queue:     config.WorkerKey.ReportRefreshQueue,
		log:       log.With().Str("component", "report_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start begins the worker loop and returns when ctx is cancelled. Call in a goroutine.
func (w *ReportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReportWorker started")

	pending := 0
	var firstPending time.Time

	for {
		if pending > 0 &&
			(pending >= RefreshBatchSize || time.Since(firstPending) >= RefreshBatchTimeout) {

			w.refresh(ctx, pending)
			pending = 0
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Draining refresh queue...")
			pending += w.drain(context.Background())
			w.refresh(context.Background(), pending)
			w.log.Info().Msg("ReportWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, RefreshPollTimeout, w.queue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(RefreshPollTimeout)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			if !w.accept(item[1]) {
				continue
			}
			if pending == 0 {
				firstPending = time.Now()
			}
			pending++
		}
	}
}

// accept decodes an event and reports whether it affects the report.
func (w *ReportWorker) accept(raw string) bool {
	var event model.SurveyEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return false
	}
	w.log.Debug().Str("event", string(event.Type)).Msg("Report event received")
	return true
}

func (w *ReportWorker) refresh(ctx context.Context, events int) {
	if events == 0 {
		return
	}
	if _, err := w.refresher.RefreshChartData(ctx); err != nil {
		w.log.Error().Err(err).Int("events", events).Msg("Chart refresh failed")
		return
	}
	w.log.Debug().Int("events", events).Msg("Chart data refreshed")
}

// drain pops whatever is left in the queue and returns how many events counted.
func (w *ReportWorker) drain(ctx context.Context) int {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}
		if w.accept(raw) {
			drained++
		}
	}
	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining events")
	}
	return drained
}
