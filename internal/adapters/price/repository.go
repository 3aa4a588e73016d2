package price

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

// Repository reads daily closes from PostgreSQL
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new price repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetClosingPrices returns daily closes for tickers in [start, end], oldest first.
// Non-positive closes are returned as stored and discarded by the engine.
func (r *Repository) GetClosingPrices(ctx context.Context, tickers []string, start, end time.Time) ([]models.PriceSample, error) {
	if len(tickers) == 0 {
		return nil, nil
	}

	query := `
		SELECT ticker, date, closing_price
		FROM stock_data
		WHERE ticker = ANY($1)
		  AND date BETWEEN $2 AND $3
		ORDER BY ticker, date
	`

	var samples []models.PriceSample
	if err := r.db.SelectContext(ctx, &samples, query, pq.Array(tickers), models.Day(start), models.Day(end)); err != nil {
		return nil, fmt.Errorf("failed to query closing prices: %w", err)
	}

	logger.Debug("closing prices loaded",
		zap.String("store", "postgres"),
		zap.Int("tickers", len(tickers)),
		zap.Int("rows", len(samples)),
	)

	return samples, nil
}

// SaveClosingPrices upserts one close per (ticker, date)
func (r *Repository) SaveClosingPrices(ctx context.Context, samples []models.PriceSample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO stock_data (ticker, date, closing_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, date) DO UPDATE SET
			closing_price = EXCLUDED.closing_price
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, s.Ticker, models.Day(s.Date), s.ClosingPrice); err != nil {
			return 0, fmt.Errorf("failed to upsert close for %s: %w", s.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return len(samples), nil
}
