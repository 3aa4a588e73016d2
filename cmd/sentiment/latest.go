package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	redisAdapter "github.com/selivandex/sentiment-index/internal/adapters/redis"
	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

var latestSector string

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the last published index values",
	Long: `Print the series the service published on its last run. The Redis cache is
read first and PostgreSQL is used when the cache is empty or unreachable.`,
	Args: cobra.NoArgs,
	RunE: runLatest,
}

func init() {
	latestCmd.Flags().StringVar(&latestSector, "sector", "", "Show this sector instead of the market")
}

func runLatest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	start, end, err := window()
	if err != nil {
		return err
	}

	var cache *redisAdapter.SeriesCache
	if client, err := redisAdapter.New(&cfg.Redis); err != nil {
		logger.Warn("redis not available, reading PostgreSQL", zap.Error(err))
	} else {
		defer client.Close()
		cache = client.Series(cfg.Engine.CacheTTL)
	}

	out := cmd.OutOrStdout()

	if latestSector != "" {
		series, err := loadSector(cmd, cache, start, end)
		if err != nil {
			return err
		}
		for _, s := range series {
			fmt.Fprintf(out, "%s %6.2f %s\n", s.Date.Format(models.DateLayout), s.Index, s.Label)
		}
		return nil
	}

	if cache != nil {
		series, ok, err := cache.GetMarket(ctx)
		if err != nil {
			logger.Warn("market cache read failed", zap.Error(err))
		}
		if ok {
			printMarket(cmd, series)
			return nil
		}
	}

	s, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	series, err := s.repo.GetMarketScores(ctx, start, end)
	if err != nil {
		return err
	}
	printMarket(cmd, series)
	return nil
}

// loadSector reads one sector from the cache, falling back to PostgreSQL
func loadSector(cmd *cobra.Command, cache *redisAdapter.SeriesCache, start, end time.Time) ([]models.SectorScore, error) {
	ctx := cmd.Context()

	if cache != nil {
		series, ok, err := cache.GetSector(ctx, latestSector)
		if err != nil {
			logger.Warn("sector cache read failed", zap.String("sector", latestSector), zap.Error(err))
		}
		if ok {
			return series, nil
		}
	}

	s, err := openStores()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return s.repo.GetSectorScores(ctx, latestSector, start, end)
}

func printMarket(cmd *cobra.Command, series []models.MarketScore) {
	for _, s := range series {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %6.2f %s\n", s.Date.Format(models.DateLayout), s.Score, s.Label)
	}
}
