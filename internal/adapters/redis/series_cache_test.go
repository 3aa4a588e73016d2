package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-index/pkg/models"
)

type memoryKV struct {
	values map[string][]byte
	ttls   map[string]time.Duration
	err    error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (m *memoryKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.values[key] = value.([]byte)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestSeriesCache_MarketRoundTrip(t *testing.T) {
	store := newMemoryKV()
	cache := NewSeriesCache(store, time.Hour)
	ctx := context.Background()

	_, ok, err := cache.GetMarket(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := []models.MarketScore{{Date: day, Score: 72.5, Label: models.LabelExtremeGreed}}
	require.NoError(t, cache.SetMarket(ctx, series))
	assert.Equal(t, time.Hour, store.ttls[marketKey])

	got, ok, err := cache.GetMarket(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, series, got)
}

func TestSeriesCache_SectorKeysAreIsolated(t *testing.T) {
	cache := NewSeriesCache(newMemoryKV(), time.Minute)
	ctx := context.Background()

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.SetSector(ctx, "Energy", []models.SectorScore{{Sector: "Energy", Date: day, Index: 40, Label: models.LabelFear}}))

	_, ok, err := cache.GetSector(ctx, "Utilities")
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := cache.GetSector(ctx, "Energy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.LabelFear, got[0].Label)
}

func TestSeriesCache_PropagatesStoreErrors(t *testing.T) {
	store := newMemoryKV()
	store.err = errors.New("connection refused")
	cache := NewSeriesCache(store, time.Minute)

	_, _, err := cache.GetMarket(context.Background())
	assert.ErrorIs(t, err, store.err)
	assert.ErrorIs(t, cache.SetMarket(context.Background(), nil), store.err)
}
