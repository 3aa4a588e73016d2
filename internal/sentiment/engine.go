package sentiment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

// DefaultConcurrency bounds parallel sector preloads when none is configured
const DefaultConcurrency = 4

// RunError reports a failed sector computation with enough context to retry it
type RunError struct {
	Sector string
	Start  time.Time
	End    time.Time
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("sector %q [%s..%s]: %v", e.Sector,
		e.Start.Format(models.DateLayout), e.End.Format(models.DateLayout), e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Engine computes sector and market series from the configured stores
type Engine struct {
	sectors     SectorSource
	articles    ArticleSource
	prices      PriceSource
	concurrency int
}

// NewEngine creates new sentiment engine
func NewEngine(sectors SectorSource, articles ArticleSource, prices PriceSource, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Engine{
		sectors:     sectors,
		articles:    articles,
		prices:      prices,
		concurrency: concurrency,
	}
}

// Sectors lists every known sector
func (e *Engine) Sectors(ctx context.Context) ([]string, error) {
	sectors, err := e.sectors.ListSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	return sectors, nil
}

// SectorSeries preloads one sector and returns its smoothed series for [start, end]
func (e *Engine) SectorSeries(ctx context.Context, sector string, start, end time.Time) ([]models.SectorScore, error) {
	start, end = models.Day(start), models.Day(end)
	fail := func(err error) error {
		return &RunError{Sector: sector, Start: start, End: end, Err: err}
	}

	tickers, err := e.sectors.GetSectorTickers(ctx, sector)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to load sector tickers: %w", err))
	}

	started := time.Now()
	snap, err := Preload(ctx, tickers, start, end, e.articles, e.prices)
	if err != nil {
		return nil, fail(err)
	}

	series := snap.SmoothedSeries(sector, start, end)

	logger.Debug("sector series computed",
		zap.String("sector", sector),
		zap.Int("tickers", len(tickers)),
		zap.Int("days", len(series)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return series, nil
}

// SectorSeriesAll computes every sector concurrently. The first failure
// cancels the remaining sectors and no partial result is returned.
func (e *Engine) SectorSeriesAll(ctx context.Context, sectors []string, start, end time.Time) (map[string][]models.SectorScore, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	var mu sync.Mutex
	out := make(map[string][]models.SectorScore, len(sectors))

	for _, sector := range sectors {
		sector := sector
		g.Go(func() error {
			series, err := e.SectorSeries(gctx, sector, start, end)
			if err != nil {
				return err
			}
			mu.Lock()
			out[sector] = series
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SectorBatch computes every sector concurrently but keeps going past
// failures. Failed sectors are reported in name order and left out of the map.
func (e *Engine) SectorBatch(ctx context.Context, sectors []string, start, end time.Time) (map[string][]models.SectorScore, []*RunError) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	var mu sync.Mutex
	out := make(map[string][]models.SectorScore, len(sectors))
	var failed []*RunError

	for _, sector := range sectors {
		sector := sector
		g.Go(func() error {
			series, err := e.SectorSeries(gctx, sector, start, end)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("sector series failed", zap.String("sector", sector), zap.Error(err))
				failed = append(failed, asRunError(sector, start, end, err))
				return nil
			}
			out[sector] = series
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(failed, func(i, j int) bool { return failed[i].Sector < failed[j].Sector })
	return out, failed
}

// MarketSeries computes the weighted market index over [start, end].
// Every weighted sector is computed first, then dates are folded in order.
func (e *Engine) MarketSeries(ctx context.Context, weights map[string]float64, start, end time.Time) ([]models.MarketScore, error) {
	sectors := make([]string, 0, len(weights))
	for name := range weights {
		sectors = append(sectors, name)
	}
	sort.Strings(sectors)

	bySector, err := e.SectorSeriesAll(ctx, sectors, start, end)
	if err != nil {
		return nil, err
	}

	return AggregateMarket(weights, bySector, start, end), nil
}

// AggregateMarket folds precomputed sector series into the market index for [start, end]
func AggregateMarket(weights map[string]float64, bySector map[string][]models.SectorScore, start, end time.Time) []models.MarketScore {
	index := make(map[string]map[time.Time]float64, len(bySector))
	for sector, series := range bySector {
		byDate := make(map[time.Time]float64, len(series))
		for _, s := range series {
			byDate[models.Day(s.Date)] = s.Index
		}
		index[sector] = byDate
	}

	agg := NewMarketAggregator(weights)
	days := models.DaysBetween(start, end)
	out := make([]models.MarketScore, 0, len(days))

	for _, day := range days {
		scores := make(map[string]float64, len(index))
		for sector, byDate := range index {
			if v, ok := byDate[day]; ok {
				scores[sector] = v
			}
		}
		score, _ := agg.Next(day, scores)
		out = append(out, score)
	}
	return out
}

func asRunError(sector string, start, end time.Time, err error) *RunError {
	var re *RunError
	if errors.As(err, &re) {
		return re
	}
	return &RunError{Sector: sector, Start: models.Day(start), End: models.Day(end), Err: err}
}
