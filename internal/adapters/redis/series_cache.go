package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/selivandex/sentiment-index/pkg/models"
)

const (
	marketKey       = "sentiment:market"
	sectorKeyPrefix = "sentiment:sector:"
)

// kv is the subset of the Redis API the cache needs
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// SeriesCache keeps the latest computed series for readers that should not hit Postgres
type SeriesCache struct {
	store kv
	ttl   time.Duration
}

// NewSeriesCache creates a series cache on top of a Redis client
func NewSeriesCache(store kv, ttl time.Duration) *SeriesCache {
	return &SeriesCache{store: store, ttl: ttl}
}

// SetMarket stores the market series
func (c *SeriesCache) SetMarket(ctx context.Context, series []models.MarketScore) error {
	return c.set(ctx, marketKey, series)
}

// GetMarket loads the market series; ok is false on a cache miss
func (c *SeriesCache) GetMarket(ctx context.Context) ([]models.MarketScore, bool, error) {
	var series []models.MarketScore
	ok, err := c.get(ctx, marketKey, &series)
	return series, ok, err
}

// SetSector stores one sector series
func (c *SeriesCache) SetSector(ctx context.Context, sector string, series []models.SectorScore) error {
	return c.set(ctx, sectorKeyPrefix+sector, series)
}

// GetSector loads one sector series; ok is false on a cache miss
func (c *SeriesCache) GetSector(ctx context.Context, sector string) ([]models.SectorScore, bool, error) {
	var series []models.SectorScore
	ok, err := c.get(ctx, sectorKeyPrefix+sector, &series)
	return series, ok, err
}

func (c *SeriesCache) set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

func (c *SeriesCache) get(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := c.store.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}
