package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/selivandex/sentiment-index/pkg/models"
)

// Repository persists computed sector and market indexes
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new sentiment repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SaveSectorScores upserts one row per (sector, date)
func (r *Repository) SaveSectorScores(ctx context.Context, scores []models.SectorScore) (int, error) {
	if len(scores) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO sector_sentiments (sector_name, date, sentiment, label, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (sector_name, date) DO UPDATE SET
			sentiment = EXCLUDED.sentiment,
			label = EXCLUDED.label,
			updated_at = NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range scores {
		if _, err := stmt.ExecContext(ctx, s.Sector, models.Day(s.Date), models.RoundScore(s.Index), string(s.Label)); err != nil {
			return 0, fmt.Errorf("failed to upsert sector score %s %s: %w", s.Sector, s.Date.Format(models.DateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return len(scores), nil
}

// SaveMarketScores upserts one row per date
func (r *Repository) SaveMarketScores(ctx context.Context, scores []models.MarketScore) (int, error) {
	if len(scores) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO market_sentiments (date, sentiment, label, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (date) DO UPDATE SET
			sentiment = EXCLUDED.sentiment,
			label = EXCLUDED.label,
			updated_at = NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range scores {
		if _, err := stmt.ExecContext(ctx, models.Day(s.Date), models.RoundScore(s.Score), string(s.Label)); err != nil {
			return 0, fmt.Errorf("failed to upsert market score %s: %w", s.Date.Format(models.DateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return len(scores), nil
}

type scoreRow struct {
	Sector    string          `db:"sector_name"`
	Date      time.Time       `db:"date"`
	Sentiment decimal.Decimal `db:"sentiment"`
	Label     string          `db:"label"`
}

// GetSectorScores returns stored rows for a sector in [start, end], oldest first
func (r *Repository) GetSectorScores(ctx context.Context, sector string, start, end time.Time) ([]models.SectorScore, error) {
	var rows []scoreRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT sector_name, date, sentiment, label
		FROM sector_sentiments
		WHERE sector_name = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`, sector, models.Day(start), models.Day(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query sector scores: %w", err)
	}

	out := make([]models.SectorScore, len(rows))
	for i, row := range rows {
		out[i] = models.SectorScore{
			Sector: row.Sector,
			Date:   models.Day(row.Date),
			Index:  models.ToFloat64(row.Sentiment),
			Label:  models.Label(row.Label),
		}
	}
	return out, nil
}

// GetMarketScores returns stored market rows in [start, end], oldest first
func (r *Repository) GetMarketScores(ctx context.Context, start, end time.Time) ([]models.MarketScore, error) {
	var rows []scoreRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT '' AS sector_name, date, sentiment, label
		FROM market_sentiments
		WHERE date BETWEEN $1 AND $2
		ORDER BY date
	`, models.Day(start), models.Day(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query market scores: %w", err)
	}

	out := make([]models.MarketScore, len(rows))
	for i, row := range rows {
		out[i] = models.MarketScore{
			Date:  models.Day(row.Date),
			Score: models.ToFloat64(row.Sentiment),
			Label: models.Label(row.Label),
		}
	}
	return out, nil
}
