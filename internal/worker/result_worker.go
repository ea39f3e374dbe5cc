package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/smpn3pacet/cbt-backend/internal/config"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
)

// resultBatchSize caps how many queued results one insert round handles.
const resultBatchSize = 50

// ResultWorker consumes persist_results_queue and writes final results to
// PostgreSQL. Results pile up at submission deadlines, so the worker gathers
// whatever is queued into one COPY batch instead of inserting row by row.
type ResultWorker struct {
	resultRepo *repository.ResultRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(resultRepo *repository.ResultRepository, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		resultRepo: resultRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "result_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ResultWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistResultsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	raws := []string{result[1]}
	for len(raws) < resultBatchSize {
		extra, err := w.rdb.LPop(ctx, config.WorkerKey.PersistResultsQueue).Result()
		if err != nil {
			break
		}
		raws = append(raws, extra)
	}

	if err := w.persistBatch(ctx, raws); err != nil {
		w.log.Error().Err(err).Int("batch", len(raws)).Msg("Persist error, retrying in 5s")
		for _, raw := range raws {
			w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
		}
		time.Sleep(5 * time.Second)
	}
}

// persistBatch decodes queued payloads and writes them in one round. A
// single result goes through the idempotent insert; larger batches use COPY
// and fall back to row-by-row inserts when the COPY fails, so one poisoned
// row cannot sink its whole batch.
func (w *ResultWorker) persistBatch(ctx context.Context, raws []string) error {
	results := make([]model.Result, 0, len(raws))
	for _, raw := range raws {
		var res model.Result
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			w.log.Error().Err(err).Msg("Unmarshal error, dropping payload")
			continue
		}
		results = append(results, res)
	}

	if len(results) == 0 {
		return nil
	}

	if len(results) == 1 {
		return w.resultRepo.Create(ctx, &results[0])
	}

	if _, err := w.resultRepo.CreateBatch(ctx, results); err != nil {
		w.log.Warn().Err(err).Msg("Batch insert failed, falling back to single inserts")
		for i := range results {
			if err := w.resultRepo.Create(ctx, &results[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *ResultWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.PersistResultsQueue).Result()
		if err != nil {
			break
		}

		if err := w.persistBatch(ctx, []string{raw}); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
