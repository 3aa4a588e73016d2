package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/internal/reports"
	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

var sectorsCmd = &cobra.Command{
	Use:   "sectors [sector...]",
	Short: "Compute sector indexes and export one CSV per sector",
	Long: `Compute the smoothed index of every named sector, or of every stored sector
when none is given. A failing sector does not stop the others; the command
still exits non-zero and lists the failures.`,
	RunE: runSectors,
}

func runSectors(cmd *cobra.Command, args []string) error {
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

	engine := s.engine()

	names := args
	if len(names) == 0 {
		if names, err = engine.Sectors(ctx); err != nil {
			return err
		}
	}

	bySector, failures := engine.SectorBatch(ctx, names, start, end)

	exporter := reports.NewExporter(cfg.Engine.OutputDir, cfg.Engine.MarketFile)
	paths, exportErr := exporter.ExportSectors(bySector)
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}

	var errs []error
	if exportErr != nil {
		errs = append(errs, exportErr)
	}

	if save {
		var rows []models.SectorScore
		for _, series := range bySector {
			rows = append(rows, series...)
		}
		n, err := s.repo.SaveSectorScores(ctx, rows)
		if err != nil {
			errs = append(errs, err)
		}
		logger.Info("sector scores saved", zap.Int("rows", n))
	}

	for _, f := range failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %v\n", f)
		errs = append(errs, f)
	}
	if len(failures) > 0 {
		errs = append(errs, fmt.Errorf("%d of %d sectors failed", len(failures), len(names)))
	}

	return errors.Join(errs...)
}
