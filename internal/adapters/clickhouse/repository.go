package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

// MarketScope is the scope value of market-wide rows
const MarketScope = "market"

// IndexRow is one archived index value. Scope is a sector name or MarketScope.
type IndexRow struct {
	ComputedAt time.Time
	Scope      string
	Date       time.Time
	Sentiment  float64
	Label      models.Label
}

// SectorRows converts a sector series into archive rows
func SectorRows(computedAt time.Time, scores []models.SectorScore) []IndexRow {
	rows := make([]IndexRow, len(scores))
	for i, s := range scores {
		rows[i] = IndexRow{ComputedAt: computedAt, Scope: s.Sector, Date: s.Date, Sentiment: s.Index, Label: s.Label}
	}
	return rows
}

// MarketRows converts the market series into archive rows
func MarketRows(computedAt time.Time, scores []models.MarketScore) []IndexRow {
	rows := make([]IndexRow, len(scores))
	for i, s := range scores {
		rows[i] = IndexRow{ComputedAt: computedAt, Scope: MarketScope, Date: s.Date, Sentiment: s.Score, Label: s.Label}
	}
	return rows
}

// Repository handles ClickHouse data operations
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new ClickHouse repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SaveIndexRows appends index rows to sentiment_index_history.
// ClickHouse batches inserts per transaction.
func (r *Repository) SaveIndexRows(ctx context.Context, rows []IndexRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO sentiment_index_history
		(computed_at, scope, date, sentiment, label)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.ExecContext(ctx,
			row.ComputedAt,
			row.Scope,
			models.Day(row.Date),
			row.Sentiment,
			string(row.Label),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert index row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved index rows to ClickHouse", zap.Int("count", len(rows)))

	return nil
}

// GetIndexHistory returns the latest archived value per date for scope in [start, end]
func (r *Repository) GetIndexHistory(ctx context.Context, scope string, start, end time.Time) ([]IndexRow, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT computed_at, scope, date, sentiment, label
		FROM sentiment_index_history FINAL
		WHERE scope = ? AND date BETWEEN ? AND ?
		ORDER BY date
	`, scope, models.Day(start), models.Day(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query index history: %w", err)
	}
	defer rows.Close()

	var out []IndexRow
	for rows.Next() {
		var row IndexRow
		var label string
		if err := rows.Scan(&row.ComputedAt, &row.Scope, &row.Date, &row.Sentiment, &label); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		row.Label = models.Label(label)
		out = append(out, row)
	}
	return out, rows.Err()
}
