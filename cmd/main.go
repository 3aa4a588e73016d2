package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/internal/adapters/clickhouse"
	"github.com/selivandex/sentiment-index/internal/adapters/config"
	"github.com/selivandex/sentiment-index/internal/adapters/database"
	"github.com/selivandex/sentiment-index/internal/adapters/market"
	"github.com/selivandex/sentiment-index/internal/adapters/news"
	"github.com/selivandex/sentiment-index/internal/adapters/price"
	redisAdapter "github.com/selivandex/sentiment-index/internal/adapters/redis"
	"github.com/selivandex/sentiment-index/internal/adapters/sectors"
	"github.com/selivandex/sentiment-index/internal/adapters/telegram"
	"github.com/selivandex/sentiment-index/internal/health"
	"github.com/selivandex/sentiment-index/internal/sentiment"
	"github.com/selivandex/sentiment-index/internal/workers"
	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/worker"
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Run application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration and initialize logger
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("sentiment index service starting",
		zap.Int("days_back", cfg.Engine.DaysBack),
		zap.String("price_source", cfg.Engine.PriceSource),
		zap.Int("weighted_sectors", len(cfg.Engine.SectorWeights)),
	)

	// Initialize core infrastructure
	db, redisClient, err := initInfrastructure(cfg)
	if err != nil {
		return err
	}

	// ClickHouse is optional unless it is the price source
	chDB, err := initClickHouse(cfg)
	if err != nil {
		if cfg.Engine.PriceSource == config.PriceSourceClickHouse {
			db.Close()
			redisClient.Close()
			return err
		}
		logger.Warn("ClickHouse not available, index archive disabled", zap.Error(err))
	}

	engine := initEngine(cfg, db, chDB)
	store := sentiment.NewRepository(db.DB())

	opts := []workers.SentimentWorkerOption{
		workers.WithLocks(redisClient),
		workers.WithCache(redisClient.Series(cfg.Engine.CacheTTL)),
	}

	var archive *clickhouse.BatchWriter[clickhouse.IndexRow]
	if chDB != nil {
		archive = clickhouse.NewIndexBatchWriter(clickhouse.NewRepository(chDB.DB()), cfg.ClickHouse.BatchMax, cfg.ClickHouse.BatchAge)
		opts = append(opts, workers.WithArchive(archive))
	}

	if notifier := initTelegram(cfg); notifier != nil {
		opts = append(opts, workers.WithNotifier(notifier))
	}

	indexWorker := workers.NewSentimentWorker(engine, store, workers.SentimentWorkerConfig{
		DaysBack: cfg.Engine.DaysBack,
		Weights:  cfg.Engine.SectorWeights,
		LockTTL:  cfg.Engine.LockTTL,
	}, opts...)

	group := worker.NewGroup(ctx)
	stats, err := scheduleWorker(cfg, group, indexWorker)
	if err != nil {
		return err
	}
	group.Start()

	checks := map[string]health.Checker{
		"database": db,
		"redis":    redisClient,
	}
	if chDB != nil {
		checks["clickhouse"] = chDB
	}
	healthServer := startHealthServer(cfg, checks, stats)

	// Wait for shutdown signal
	<-ctx.Done()

	return performGracefulShutdown(healthServer, group, archive, chDB, db, redisClient)
}

// initConfig loads configuration and initializes logger
func initConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// initInfrastructure initializes database and Redis connections
func initInfrastructure(cfg *config.Config) (*database.DB, *redisAdapter.Client, error) {
	db, err := initDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := initRedis(cfg)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, redisClient, nil
}

// initDatabase connects to PostgreSQL and applies migrations
func initDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(db.Conn(), cfg.Engine.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// initRedis initializes Redis client with Redlock support
func initRedis(cfg *config.Config) (*redisAdapter.Client, error) {
	redisClient, err := redisAdapter.New(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Health(ctx); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("redis health check failed: %w", err)
	}

	logger.Info("redis connection established (redlock)",
		zap.String("addr", cfg.Redis.Addr()),
	)

	return redisClient, nil
}

// initClickHouse connects to ClickHouse when enabled
func initClickHouse(cfg *config.Config) (*database.DB, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	ch, err := database.NewClickHouse(&cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return ch, nil
}

// initEngine wires the sector, article and price stores into the engine
func initEngine(cfg *config.Config, db *database.DB, chDB *database.DB) *sentiment.Engine {
	var prices sentiment.PriceSource = price.NewRepository(db.DB())
	if cfg.Engine.PriceSource == config.PriceSourceClickHouse && chDB != nil {
		prices = market.NewRepository(chDB.DB())
		logger.Info("closing prices read from ClickHouse")
	}

	return sentiment.NewEngine(
		sectors.NewRepository(db.DB()),
		news.NewRepository(db.DB()),
		prices,
		cfg.Engine.Concurrency,
	)
}

// initTelegram creates the run summary notifier when enabled
func initTelegram(cfg *config.Config) *telegram.Notifier {
	if !cfg.Telegram.Enabled {
		logger.Info("telegram notifications disabled")
		return nil
	}

	notifier, err := telegram.NewNotifier(&cfg.Telegram)
	if err != nil {
		logger.Warn("failed to initialize telegram notifier", zap.Error(err))
		return nil
	}

	logger.Info("📱 Telegram notifier initialized")
	return notifier
}

// scheduleWorker registers the index worker on the cron schedule, or on the fixed interval
func scheduleWorker(cfg *config.Config, group *worker.Group, w worker.Worker) (health.StatsSource, error) {
	if cfg.Engine.Schedule != "" {
		sw, err := group.AddScheduled(w, cfg.Engine.Schedule, cfg.Engine.RunOnStart)
		if err != nil {
			return nil, err
		}
		logger.Info("sentiment worker scheduled", zap.String("schedule", cfg.Engine.Schedule))
		return sw, nil
	}

	logger.Info("sentiment worker scheduled", zap.Duration("interval", cfg.Engine.Interval))
	return group.Add(w, cfg.Engine.Interval, cfg.Engine.RunOnStart), nil
}

// startHealthServer initializes and starts health check server for K8s probes
func startHealthServer(cfg *config.Config, checks map[string]health.Checker, stats health.StatsSource) *health.Server {
	healthServer := health.NewServer(cfg.Health.Port, checks, stats)

	go func() {
		if err := healthServer.Start(); err != nil {
			logger.Error("health server error", zap.Error(err))
		}
	}()

	// Mark service as ready after initialization
	healthServer.SetReady(true)

	return healthServer
}

// performGracefulShutdown handles graceful shutdown of all components
func performGracefulShutdown(
	healthServer *health.Server,
	group *worker.Group,
	archive *clickhouse.BatchWriter[clickhouse.IndexRow],
	chDB *database.DB,
	db *database.DB,
	redisClient *redisAdapter.Client,
) error {
	logger.Info("🛑 Shutdown signal received, starting graceful shutdown...")

	// Mark service as not ready (stop accepting new traffic)
	healthServer.SetReady(false)

	// K8s gives 30s terminationGracePeriodSeconds
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer shutdownCancel()

	logger.Info("stopping workers...")
	group.Stop(15 * time.Second)

	var errs []error

	if archive != nil {
		logger.Info("flushing index archive...")
		if err := archive.Close(); err != nil {
			logger.Error("index archive flush error", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if chDB != nil {
		if err := chDB.Close(); err != nil {
			logger.Error("clickhouse close error", zap.Error(err))
		}
	}

	logger.Info("closing database connection...")
	if err := db.Close(); err != nil {
		logger.Error("database close error", zap.Error(err))
	}

	logger.Info("closing redis connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("redis close error", zap.Error(err))
	}

	logger.Info("stopping health server...")
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Error("health server stop error", zap.Error(err))
	}

	select {
	case <-shutdownCtx.Done():
		logger.Warn("⚠️ shutdown timeout exceeded")
		errs = append(errs, fmt.Errorf("graceful shutdown timeout"))
	default:
		logger.Info("✅ shutdown completed successfully")
	}

	return errors.Join(errs...)
}
