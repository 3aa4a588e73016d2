package sentiment

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-index/pkg/models"
)

type memoryArticles struct {
	signals []models.ArticleSignal
	err     error
}

func (m *memoryArticles) GetArticleSignals(ctx context.Context, tickers []string, start, end time.Time) ([]models.ArticleSignal, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.signals, nil
}

type memoryPrices struct {
	samples []models.PriceSample
	err     error

	gotStart time.Time
}

func (m *memoryPrices) GetClosingPrices(ctx context.Context, tickers []string, start, end time.Time) ([]models.PriceSample, error) {
	m.gotStart = start
	if m.err != nil {
		return nil, m.err
	}
	return m.samples, nil
}

type memorySectors struct {
	members map[string][]string
	errs    map[string]error
}

func (m *memorySectors) ListSectors(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(m.members))
	for s := range m.members {
		out = append(out, s)
	}
	return out, nil
}

func (m *memorySectors) GetSectorTickers(ctx context.Context, sector string) ([]string, error) {
	if err := m.errs[sector]; err != nil {
		return nil, err
	}
	return m.members[sector], nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func signal(ticker string, date time.Time, sentiment, relevance float64) models.ArticleSignal {
	return models.ArticleSignal{
		Ticker:         ticker,
		Date:           date,
		SentimentScore: decimal.NewFromFloat(sentiment),
		RelevanceScore: decimal.NewFromFloat(relevance),
	}
}

func signals(n int, ticker string, date time.Time, sentiment, relevance float64) []models.ArticleSignal {
	out := make([]models.ArticleSignal, n)
	for i := range out {
		// spread over the day to check calendar-day bucketing
		out[i] = signal(ticker, date.Add(time.Duration(i)*time.Hour), sentiment, relevance)
	}
	return out
}

func closeAt(ticker string, date time.Time, price float64) models.PriceSample {
	return models.PriceSample{Ticker: ticker, Date: date, ClosingPrice: decimal.NewFromFloat(price)}
}

func preload(t *testing.T, tickers []string, start, end time.Time, arts []models.ArticleSignal, prices []models.PriceSample) *Snapshot {
	t.Helper()
	snap, err := Preload(context.Background(), tickers, start, end,
		&memoryArticles{signals: arts}, &memoryPrices{samples: prices})
	require.NoError(t, err)
	return snap
}
