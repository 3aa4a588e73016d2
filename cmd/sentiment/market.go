package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/internal/reports"
	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Compute the weighted market index and export it as CSV",
	Long: `Compute every weighted sector (ENGINE_SECTOR_WEIGHTS) and fold them into the
market index. Any sector failure aborts the command without output.`,
	Args: cobra.NoArgs,
	RunE: runMarket,
}

func runMarket(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	start, end, err := window()
	if err != nil {
		return err
	}

	s, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	series, err := s.engine().MarketSeries(ctx, cfg.Engine.SectorWeights, start, end)
	if err != nil {
		return err
	}

	exporter := reports.NewExporter(cfg.Engine.OutputDir, cfg.Engine.MarketFile)
	path, err := exporter.ExportMarket(series)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if save {
		n, err := s.repo.SaveMarketScores(ctx, series)
		if err != nil {
			return err
		}
		logger.Info("market scores saved", zap.Int("rows", n))
	}

	if len(series) > 0 {
		last := series[len(series)-1]
		fmt.Fprintf(cmd.OutOrStdout(), "%s %.2f %s\n", last.Date.Format(models.DateLayout), last.Score, last.Label)
	}
	return nil
}
