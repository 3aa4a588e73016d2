package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/internal/adapters/config"
	"github.com/selivandex/sentiment-index/internal/adapters/database"
	"github.com/selivandex/sentiment-index/internal/adapters/market"
	"github.com/selivandex/sentiment-index/internal/adapters/news"
	"github.com/selivandex/sentiment-index/internal/adapters/price"
	"github.com/selivandex/sentiment-index/internal/adapters/sectors"
	"github.com/selivandex/sentiment-index/internal/sentiment"
	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

var (
	cfg *config.Config

	daysBack  int
	endDate   string
	outputDir string
	save      bool
)

var rootCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Compute sector and market fear/greed indexes",
	Long: `sentiment builds the daily sector fear/greed indexes from stored article
signals and closing prices, folds them into the weighted market index and
exports the series as CSV.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if outputDir != "" {
			cfg.Engine.OutputDir = outputDir
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&daysBack, "days", "d", 0, "Days of history ending at --end (default ENGINE_DAYS_BACK)")
	rootCmd.PersistentFlags().StringVar(&endDate, "end", "", "Last day of the window, YYYY-MM-DD (default today)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "out", "o", "", "CSV output directory (default ENGINE_OUTPUT_DIR)")
	rootCmd.PersistentFlags().BoolVar(&save, "save", false, "Also upsert the computed rows into PostgreSQL")

	rootCmd.AddCommand(sectorsCmd, marketCmd, latestCmd, historyCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// window resolves the [start, end] range from flags and config
func window() (time.Time, time.Time, error) {
	end := models.Day(time.Now())
	if endDate != "" {
		parsed, err := time.Parse(models.DateLayout, endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q: %w", endDate, err)
		}
		end = parsed
	}

	engineCfg := cfg.Engine
	if daysBack != 0 {
		if daysBack < 1 {
			return time.Time{}, time.Time{}, fmt.Errorf("--days must be at least 1, got %d", daysBack)
		}
		engineCfg.DaysBack = daysBack
	}

	start, end := engineCfg.Window(end)
	return start, end, nil
}

// stores holds the connections opened for one command
type stores struct {
	db   *database.DB
	ch   *database.DB
	repo *sentiment.Repository
}

func openStores() (*stores, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	s := &stores{db: db, repo: sentiment.NewRepository(db.DB())}

	if cfg.ClickHouse.Enabled {
		ch, err := database.NewClickHouse(&cfg.ClickHouse)
		if err != nil {
			if cfg.Engine.PriceSource == config.PriceSourceClickHouse {
				db.Close()
				return nil, err
			}
			logger.Warn("ClickHouse not available", zap.Error(err))
		} else {
			s.ch = ch
		}
	}

	return s, nil
}

func (s *stores) engine() *sentiment.Engine {
	var prices sentiment.PriceSource = price.NewRepository(s.db.DB())
	if cfg.Engine.PriceSource == config.PriceSourceClickHouse && s.ch != nil {
		prices = market.NewRepository(s.ch.DB())
	}
	return sentiment.NewEngine(sectors.NewRepository(s.db.DB()), news.NewRepository(s.db.DB()), prices, cfg.Engine.Concurrency)
}

func (s *stores) Close() {
	if s.ch != nil {
		s.ch.Close()
	}
	s.db.Close()
}
