package sentiment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-index/internal/adapters/news"
	"github.com/selivandex/sentiment-index/internal/adapters/price"
	"github.com/selivandex/sentiment-index/internal/adapters/sectors"
	"github.com/selivandex/sentiment-index/internal/sentiment"
	"github.com/selivandex/sentiment-index/pkg/models"
	"github.com/selivandex/sentiment-index/test/testdb"
)

func TestPostgresRoundTrip(t *testing.T) {
	tdb := testdb.Setup(t)
	ctx := context.Background()
	db := tdb.DB.DB()

	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	tdb.SeedSector(t, "Energy", "XOM", "CVX")
	noon := start.Add(12 * time.Hour)
	tdb.SeedArticles(t, "XOM", noon, 6, 0.20, 1)
	tdb.SeedArticles(t, "CVX", noon, 4, 0.20, 1)
	tdb.SeedArticles(t, "CVX", noon.AddDate(0, 0, 1), 3, 0.20, 1)

	engine := sentiment.NewEngine(sectors.NewRepository(db), news.NewRepository(db), price.NewRepository(db), 2)
	series, err := engine.SectorSeries(ctx, "Energy", start, end)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.InDelta(t, 34.5, series[0].Index, 1e-9)

	repo := sentiment.NewRepository(db)
	n, err := repo.SaveSectorScores(ctx, series)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// saving again updates in place
	_, err = repo.SaveSectorScores(ctx, series)
	require.NoError(t, err)
	assert.Equal(t, 3, tdb.Count(t, "sector_sentiments"))

	stored, err := repo.GetSectorScores(ctx, "Energy", start, end)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, start, stored[0].Date.UTC())
	assert.Equal(t, 34.5, stored[0].Index)
	assert.Equal(t, models.LabelFear, stored[0].Label)

	market := sentiment.AggregateMarket(map[string]float64{"Energy": 1},
		map[string][]models.SectorScore{"Energy": series}, start, end)
	_, err = repo.SaveMarketScores(ctx, market)
	require.NoError(t, err)

	got, err := repo.GetMarketScores(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.InterpretIndex(got[2].Score), got[2].Label)
}
