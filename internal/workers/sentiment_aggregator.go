package workers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/internal/adapters/clickhouse"
	"github.com/selivandex/sentiment-index/internal/adapters/redis"
	"github.com/selivandex/sentiment-index/internal/reports"
	"github.com/selivandex/sentiment-index/internal/sentiment"
	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

const sentimentJob = "sentiment-index"

// SentimentEngine computes sector series
type SentimentEngine interface {
	Sectors(ctx context.Context) ([]string, error)
	SectorBatch(ctx context.Context, sectors []string, start, end time.Time) (map[string][]models.SectorScore, []*sentiment.RunError)
}

// ScoreStore persists computed series
type ScoreStore interface {
	SaveSectorScores(ctx context.Context, scores []models.SectorScore) (int, error)
	SaveMarketScores(ctx context.Context, scores []models.MarketScore) (int, error)
}

// IndexArchive receives rows for the analytical store
type IndexArchive interface {
	Add(rows ...clickhouse.IndexRow)
}

// SeriesCache holds the latest series for fast reads
type SeriesCache interface {
	SetMarket(ctx context.Context, series []models.MarketScore) error
	SetSector(ctx context.Context, sector string, series []models.SectorScore) error
}

// SummaryNotifier announces finished runs
type SummaryNotifier interface {
	SendRunSummary(ctx context.Context, summary models.RunSummary) error
}

// SentimentWorkerConfig holds the run parameters
type SentimentWorkerConfig struct {
	DaysBack int
	Weights  map[string]float64
	LockTTL  time.Duration
}

// SentimentWorker recomputes every sector and the market index over the
// trailing window and fans the result out to the configured sinks.
// Optional sinks may be nil.
type SentimentWorker struct {
	engine   SentimentEngine
	store    ScoreStore
	archive  IndexArchive
	cache    SeriesCache
	notifier SummaryNotifier
	locks    redis.LockFactory
	cfg      SentimentWorkerConfig
	now      func() time.Time
}

// SentimentWorkerOption configures optional sinks
type SentimentWorkerOption func(*SentimentWorker)

// WithArchive streams results to the analytical store
func WithArchive(a IndexArchive) SentimentWorkerOption {
	return func(w *SentimentWorker) { w.archive = a }
}

// WithCache stores results in the series cache
func WithCache(c SeriesCache) SentimentWorkerOption {
	return func(w *SentimentWorker) { w.cache = c }
}

// WithNotifier announces each run
func WithNotifier(n SummaryNotifier) SentimentWorkerOption {
	return func(w *SentimentWorker) { w.notifier = n }
}

// WithLocks serializes runs across replicas
func WithLocks(f redis.LockFactory) SentimentWorkerOption {
	return func(w *SentimentWorker) { w.locks = f }
}

// WithClock overrides the wall clock used to pick the window end
func WithClock(now func() time.Time) SentimentWorkerOption {
	return func(w *SentimentWorker) { w.now = now }
}

// NewSentimentWorker creates the index worker
func NewSentimentWorker(engine SentimentEngine, store ScoreStore, cfg SentimentWorkerConfig, opts ...SentimentWorkerOption) *SentimentWorker {
	w := &SentimentWorker{
		engine: engine,
		store:  store,
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns worker name for logging
func (w *SentimentWorker) Name() string {
	return "sentiment_index"
}

// Run executes one full recomputation
func (w *SentimentWorker) Run(ctx context.Context) error {
	if w.locks != nil {
		lock := w.locks.NewRunLock(sentimentJob, w.cfg.LockTTL)
		acquired, err := lock.TryAcquire(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if !acquired {
			logger.Info("sentiment run skipped, another replica holds the lock")
			return nil
		}
		defer lock.Release(context.WithoutCancel(ctx))
	}

	_, err := w.RunOnce(ctx)
	return err
}

// RunOnce computes, persists and publishes one run and returns its summary.
// Sectors that fail are reported in the returned error after the others are saved.
func (w *SentimentWorker) RunOnce(ctx context.Context) (models.RunSummary, error) {
	started := time.Now()
	runID := uuid.NewString()
	end := models.Day(w.now())
	start := end.AddDate(0, 0, -(w.cfg.DaysBack - 1))

	log := logger.With(zap.String("run_id", runID))
	log.Info("sentiment run starting",
		zap.Time("start", start),
		zap.Time("end", end),
	)

	sectors, err := w.sectorUniverse(ctx)
	if err != nil {
		return models.RunSummary{}, err
	}

	bySector, failures := w.engine.SectorBatch(ctx, sectors, start, end)

	var errs []error
	failed := make([]string, 0, len(failures))
	for _, f := range failures {
		failed = append(failed, f.Sector)
		errs = append(errs, f)
	}

	if err := w.saveSectors(ctx, bySector); err != nil {
		errs = append(errs, err)
	}

	var market []models.MarketScore
	if missing := w.missingWeighted(bySector); len(missing) > 0 {
		log.Warn("market index skipped, weighted sectors failed", zap.Strings("sectors", missing))
	} else {
		market = sentiment.AggregateMarket(w.cfg.Weights, bySector, start, end)
		if _, err := w.store.SaveMarketScores(ctx, market); err != nil {
			errs = append(errs, fmt.Errorf("failed to save market scores: %w", err))
		}
	}

	computedAt := time.Now().UTC()
	w.publish(ctx, computedAt, bySector, market)

	summary := reports.Summarize(runID, market, bySector, failed)
	summary.Elapsed = time.Since(started).Round(time.Millisecond)

	if w.notifier != nil && len(market) > 0 {
		if err := w.notifier.SendRunSummary(ctx, summary); err != nil {
			log.Warn("failed to send run summary", zap.Error(err))
		}
	}

	log.Info("sentiment run finished",
		zap.Int("sectors", len(bySector)),
		zap.Strings("failed", failed),
		zap.Int("market_days", len(market)),
		zap.Duration("elapsed", summary.Elapsed),
	)

	return summary, errors.Join(errs...)
}

// sectorUniverse is every stored sector plus every weighted one
func (w *SentimentWorker) sectorUniverse(ctx context.Context) ([]string, error) {
	listed, err := w.engine.Sectors(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(listed)+len(w.cfg.Weights))
	for _, s := range listed {
		seen[s] = struct{}{}
	}
	for s := range w.cfg.Weights {
		seen[s] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (w *SentimentWorker) missingWeighted(bySector map[string][]models.SectorScore) []string {
	var missing []string
	for s := range w.cfg.Weights {
		if _, ok := bySector[s]; !ok {
			missing = append(missing, s)
		}
	}
	sort.Strings(missing)
	return missing
}

func (w *SentimentWorker) saveSectors(ctx context.Context, bySector map[string][]models.SectorScore) error {
	var rows []models.SectorScore
	for _, series := range bySector {
		rows = append(rows, series...)
	}
	if _, err := w.store.SaveSectorScores(ctx, rows); err != nil {
		return fmt.Errorf("failed to save sector scores: %w", err)
	}
	return nil
}

// publish feeds the best-effort sinks; their failures are logged, not returned
func (w *SentimentWorker) publish(ctx context.Context, computedAt time.Time, bySector map[string][]models.SectorScore, market []models.MarketScore) {
	if w.archive != nil {
		for _, series := range bySector {
			w.archive.Add(clickhouse.SectorRows(computedAt, series)...)
		}
		w.archive.Add(clickhouse.MarketRows(computedAt, market)...)
	}

	if w.cache != nil {
		for sector, series := range bySector {
			if err := w.cache.SetSector(ctx, sector, series); err != nil {
				logger.Warn("failed to cache sector series", zap.String("sector", sector), zap.Error(err))
			}
		}
		if len(market) > 0 {
			if err := w.cache.SetMarket(ctx, market); err != nil {
				logger.Warn("failed to cache market series", zap.Error(err))
			}
		}
	}
}
