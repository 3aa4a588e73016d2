package sentiment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

const (
	// MinRelevance is the lowest relevance an article needs to count
	MinRelevance = 0.1
	// PriceLookbackDays is how much price history before the window start is loaded
	PriceLookbackDays = 365
)

// ArticleSource returns article signals for a set of tickers and a date range
type ArticleSource interface {
	GetArticleSignals(ctx context.Context, tickers []string, start, end time.Time) ([]models.ArticleSignal, error)
}

// PriceSource returns daily closes for a set of tickers and a date range
type PriceSource interface {
	GetClosingPrices(ctx context.Context, tickers []string, start, end time.Time) ([]models.PriceSample, error)
}

// SectorSource resolves sector membership
type SectorSource interface {
	ListSectors(ctx context.Context) ([]string, error)
	GetSectorTickers(ctx context.Context, sector string) ([]string, error)
}

// ArticleWeight is a clamped (sentiment, relevance) pair
type ArticleWeight struct {
	Sentiment float64
	Relevance float64
}

// PricePoint is one positive close
type PricePoint struct {
	Date  time.Time
	Price float64
}

// Snapshot is the preloaded, read-only view of one sector over one window.
// Nothing mutates it after Preload returns, so it is safe for concurrent readers.
type Snapshot struct {
	tickers  []string
	start    time.Time
	end      time.Time
	articles map[time.Time][]ArticleWeight
	prices   map[string][]PricePoint
}

// Preload bulk-loads articles and prices for tickers over [start, end].
// Prices are loaded from start-365d so momentum and strength have a full year of history.
// Any store error aborts the preload; no partial snapshot is returned.
func Preload(ctx context.Context, tickers []string, start, end time.Time, articles ArticleSource, prices PriceSource) (*Snapshot, error) {
	start, end = models.Day(start), models.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: end %s before start %s",
			end.Format(models.DateLayout), start.Format(models.DateLayout))
	}

	universe := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		universe[t] = struct{}{}
	}

	signals, err := articles.GetArticleSignals(ctx, tickers, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load article signals: %w", err)
	}

	priceStart := start.AddDate(0, 0, -PriceLookbackDays)
	samples, err := prices.GetClosingPrices(ctx, tickers, priceStart, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load closing prices: %w", err)
	}

	snap := &Snapshot{
		tickers:  append([]string(nil), tickers...),
		start:    start,
		end:      end,
		articles: indexArticles(signals, universe, start, end),
		prices:   indexPrices(samples, universe, priceStart, end),
	}

	logger.Debug("sentiment snapshot preloaded",
		zap.Int("tickers", len(tickers)),
		zap.Int("article_rows", len(signals)),
		zap.Int("article_days", len(snap.articles)),
		zap.Int("price_rows", len(samples)),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	return snap, nil
}

func indexArticles(signals []models.ArticleSignal, universe map[string]struct{}, start, end time.Time) map[time.Time][]ArticleWeight {
	byDate := make(map[time.Time][]ArticleWeight)
	for _, s := range signals {
		if _, ok := universe[s.Ticker]; !ok {
			continue
		}
		day := models.Day(s.Date)
		if day.Before(start) || day.After(end) {
			continue
		}

		relevance := clamp(models.ToFloat64(s.RelevanceScore), 0, 1)
		if relevance < MinRelevance {
			continue
		}

		byDate[day] = append(byDate[day], ArticleWeight{
			Sentiment: clamp(models.ToFloat64(s.SentimentScore), -1, 1),
			Relevance: relevance,
		})
	}
	return byDate
}

func indexPrices(samples []models.PriceSample, universe map[string]struct{}, start, end time.Time) map[string][]PricePoint {
	// Later rows for the same ticker and day replace earlier ones
	byTicker := make(map[string]map[time.Time]float64)
	for _, s := range samples {
		if _, ok := universe[s.Ticker]; !ok {
			continue
		}
		day := models.Day(s.Date)
		if day.Before(start) || day.After(end) {
			continue
		}

		price := models.ToFloat64(s.ClosingPrice)
		if price <= 0 {
			continue
		}

		if byTicker[s.Ticker] == nil {
			byTicker[s.Ticker] = make(map[time.Time]float64)
		}
		byTicker[s.Ticker][day] = price
	}

	out := make(map[string][]PricePoint, len(byTicker))
	for ticker, days := range byTicker {
		points := make([]PricePoint, 0, len(days))
		for d, p := range days {
			points = append(points, PricePoint{Date: d, Price: p})
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		out[ticker] = points
	}
	return out
}

// Tickers returns the sector members the snapshot was built for
func (s *Snapshot) Tickers() []string {
	return append([]string(nil), s.tickers...)
}

// Range returns the scored window
func (s *Snapshot) Range() (time.Time, time.Time) {
	return s.start, s.end
}

// ArticlesOn returns the qualifying signals for a day
func (s *Snapshot) ArticlesOn(date time.Time) []ArticleWeight {
	return s.articles[models.Day(date)]
}

// PricesFor returns the date-ordered closes of a ticker
func (s *Snapshot) PricesFor(ticker string) []PricePoint {
	return s.prices[ticker]
}

// priceOn finds the close on exactly that calendar day
func (s *Snapshot) priceOn(ticker string, date time.Time) (float64, bool) {
	points := s.prices[ticker]
	i := sort.Search(len(points), func(i int) bool { return !points[i].Date.Before(date) })
	if i < len(points) && points[i].Date.Equal(date) {
		return points[i].Price, true
	}
	return 0, false
}

// window returns the closes in [from, to]
func (s *Snapshot) window(ticker string, from, to time.Time) []PricePoint {
	points := s.prices[ticker]
	lo := sort.Search(len(points), func(i int) bool { return !points[i].Date.Before(from) })
	hi := sort.Search(len(points), func(i int) bool { return points[i].Date.After(to) })
	if lo >= hi {
		return nil
	}
	return points[lo:hi]
}
