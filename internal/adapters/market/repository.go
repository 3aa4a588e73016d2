package market

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

// Repository reads daily closes from ClickHouse
type Repository struct {
	ch *sqlx.DB // ClickHouse connection
}

// NewRepository creates new market repository
func NewRepository(ch *sqlx.DB) *Repository {
	return &Repository{ch: ch}
}

// GetClosingPrices returns daily closes for tickers in [start, end], oldest first.
// stock_closes is a ReplacingMergeTree, FINAL collapses re-ingested days.
func (r *Repository) GetClosingPrices(ctx context.Context, tickers []string, start, end time.Time) ([]models.PriceSample, error) {
	if len(tickers) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT ticker, date, close
		FROM stock_closes FINAL
		WHERE ticker IN (?)
		  AND date BETWEEN ? AND ?
		ORDER BY ticker, date
	`, tickers, models.Day(start), models.Day(end))
	if err != nil {
		return nil, fmt.Errorf("failed to build closes query: %w", err)
	}

	rows, err := r.ch.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes from ClickHouse: %w", err)
	}
	defer rows.Close()

	samples := []models.PriceSample{}
	for rows.Next() {
		var (
			ticker string
			date   time.Time
			close  float64
		)
		if err := rows.Scan(&ticker, &date, &close); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		samples = append(samples, models.PriceSample{
			Ticker:       ticker,
			Date:         models.Day(date),
			ClosingPrice: models.NewDecimal(close),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate closes: %w", err)
	}

	logger.Debug("closing prices loaded",
		zap.String("store", "clickhouse"),
		zap.Int("tickers", len(tickers)),
		zap.Int("rows", len(samples)),
	)

	return samples, nil
}
