package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/selivandex/sentiment-index/internal/adapters/clickhouse"
	"github.com/selivandex/sentiment-index/pkg/models"
)

var historyCmd = &cobra.Command{
	Use:   "history [scope]",
	Short: "Print archived index values from ClickHouse",
	Long: `Print the archived index of a sector, or of the market when no scope is
given. Each date shows the value of the most recent run that computed it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.ClickHouse.Enabled {
		return fmt.Errorf("history requires CLICKHOUSE_ENABLED=true")
	}

	start, end, err := window()
	if err != nil {
		return err
	}

	scope := clickhouse.MarketScope
	if len(args) == 1 {
		scope = args[0]
	}

	s, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	if s.ch == nil {
		return fmt.Errorf("clickhouse is not reachable")
	}

	rows, err := clickhouse.NewRepository(s.ch.DB()).GetIndexHistory(cmd.Context(), scope, start, end)
	if err != nil {
		return err
	}

	for _, r := range rows {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %6.2f %-13s computed %s\n",
			r.Date.Format(models.DateLayout), r.Sentiment, r.Label, r.ComputedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
