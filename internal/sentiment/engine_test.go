package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-index/pkg/models"
)

func testEngine(errs map[string]error) *Engine {
	start := day(2024, 6, 1)

	var arts []models.ArticleSignal
	var prices []models.PriceSample
	for i := 0; i < 10; i++ {
		d := start.AddDate(0, 0, i)
		if i%3 != 2 {
			arts = append(arts, signals(10, "XOM", d, 0.05+0.02*float64(i), 0.8)...)
			arts = append(arts, signals(12, "NEE", d, 0.25, 1)...)
		}
		prices = append(prices, closeAt("XOM", d, 100+float64(i)), closeAt("NEE", d, 80-float64(i)))
	}

	sectors := &memorySectors{
		members: map[string][]string{"Energy": {"XOM"}, "Utilities": {"NEE"}, "Empty": nil},
		errs:    errs,
	}
	return NewEngine(sectors, &memoryArticles{signals: arts}, &memoryPrices{samples: prices}, 2)
}

func TestEngine_SectorSeries(t *testing.T) {
	e := testEngine(nil)
	start, end := day(2024, 6, 1), day(2024, 6, 10)

	series, err := e.SectorSeries(context.Background(), "Energy", start, end)
	require.NoError(t, err)
	require.Len(t, series, 10)
	assert.Equal(t, start, series[0].Date)
	assert.Equal(t, end, series[9].Date)

	again, err := e.SectorSeries(context.Background(), "Energy", start, end)
	require.NoError(t, err)
	assert.Equal(t, series, again, "same inputs give the same series")

	empty, err := e.SectorSeries(context.Background(), "Empty", start, end)
	require.NoError(t, err)
	for _, s := range empty {
		assert.Equal(t, 50.0, s.Index, "a sector without data stays at the initial carry")
	}
}

func TestEngine_SectorSeriesAllFailsFast(t *testing.T) {
	boom := errors.New("relation does not exist")
	e := testEngine(map[string]error{"Utilities": boom})
	start, end := day(2024, 6, 1), day(2024, 6, 10)

	out, err := e.SectorSeriesAll(context.Background(), []string{"Energy", "Utilities"}, start, end)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "Utilities", runErr.Sector)
	assert.Equal(t, start, runErr.Start)
	assert.Equal(t, end, runErr.End)
	assert.Contains(t, err.Error(), `sector "Utilities" [2024-06-01..2024-06-10]`)
	assert.Contains(t, err.Error(), "failed to load sector tickers")
}

func TestEngine_SectorBatchKeepsHealthySectors(t *testing.T) {
	e := testEngine(map[string]error{"Utilities": errors.New("timeout"), "Materials": errors.New("timeout")})
	start, end := day(2024, 6, 1), day(2024, 6, 5)

	out, failed := e.SectorBatch(context.Background(), []string{"Utilities", "Energy", "Materials"}, start, end)

	require.Len(t, out, 1)
	assert.Len(t, out["Energy"], 5)

	require.Len(t, failed, 2)
	assert.Equal(t, "Materials", failed[0].Sector)
	assert.Equal(t, "Utilities", failed[1].Sector)
}

func TestEngine_MarketSeries(t *testing.T) {
	e := testEngine(nil)
	start, end := day(2024, 6, 1), day(2024, 6, 10)
	weights := map[string]float64{"Energy": 0.6, "Utilities": 0.4}

	market, err := e.MarketSeries(context.Background(), weights, start, end)
	require.NoError(t, err)
	require.Len(t, market, 10)

	for i, m := range market {
		assert.Equal(t, start.AddDate(0, 0, i), m.Date)
		assert.GreaterOrEqual(t, m.Score, 0.0)
		assert.LessOrEqual(t, m.Score, 100.0)
		assert.Equal(t, models.InterpretIndex(m.Score), m.Label)
	}

	bySector, err := e.SectorSeriesAll(context.Background(), []string{"Energy", "Utilities"}, start, end)
	require.NoError(t, err)
	assert.Equal(t, market, AggregateMarket(weights, bySector, start, end))

	again, err := e.MarketSeries(context.Background(), weights, start, end)
	require.NoError(t, err)
	assert.Equal(t, market, again)
}

func TestEngine_MarketSeriesFailure(t *testing.T) {
	e := testEngine(map[string]error{"Energy": errors.New("down")})

	_, err := e.MarketSeries(context.Background(), map[string]float64{"Energy": 1}, day(2024, 6, 1), day(2024, 6, 3))

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "Energy", runErr.Sector)
}
