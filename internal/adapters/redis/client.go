package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/internal/adapters/config"
	"github.com/selivandex/sentiment-index/pkg/logger"
)

// Client holds the two Redis roles of the service: a RedLock manager that
// serializes index runs across replicas and a plain client for the series cache.
type Client struct {
	locks *redlock.RedLock
	cache *redis.Client
	addr  string
}

// New connects both roles to the configured instance
func New(cfg *config.RedisConfig) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Single instance; a RedLock quorum needs the other nodes listed here
	locks, err := redlock.NewRedLock(ctx, []string{"tcp://" + cfg.Addr()})
	if err != nil {
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	cache := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	if err := cache.Ping(ctx).Err(); err != nil {
		cache.Close()
		return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
	}

	logger.Info("redis client initialized",
		zap.String("address", cfg.Addr()),
		zap.Int("db", cfg.DB),
	)

	return &Client{locks: locks, cache: cache, addr: cfg.Addr()}, nil
}

// Series returns the series cache backed by this client
func (c *Client) Series(ttl time.Duration) *SeriesCache {
	return NewSeriesCache(c.cache, ttl)
}

// NewRunLock creates a renewable lock for one job, so Client is a LockFactory
func (c *Client) NewRunLock(job string, ttl time.Duration) RunLock {
	return NewDistributedLock(c.locks, job, ttl)
}

// Close closes the cache connection pool. RedLock has nothing to release.
func (c *Client) Close() error {
	if err := c.cache.Close(); err != nil {
		return fmt.Errorf("failed to close redis %s: %w", c.addr, err)
	}
	return nil
}

// Health pings the cache connection
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.cache.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
