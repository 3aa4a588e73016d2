package sectors

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository resolves sector membership from the stocks table
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new sector repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ListSectors returns every sector name in alphabetical order
func (r *Repository) ListSectors(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names, `SELECT name FROM sectors ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to query sectors: %w", err)
	}
	return names, nil
}

// GetSectorTickers returns the tickers assigned to sector.
// An unknown sector yields an empty list.
func (r *Repository) GetSectorTickers(ctx context.Context, sector string) ([]string, error) {
	var tickers []string
	err := r.db.SelectContext(ctx, &tickers, `
		SELECT ticker
		FROM stocks
		WHERE sector_name = $1
		ORDER BY ticker
	`, sector)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers for sector %q: %w", sector, err)
	}
	return tickers, nil
}

// AssignTicker upserts a ticker into a sector, creating the sector when needed
func (r *Repository) AssignTicker(ctx context.Context, sector, ticker string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO sectors (name) VALUES ($1) ON CONFLICT DO NOTHING`, sector); err != nil {
		return fmt.Errorf("failed to insert sector: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stocks (ticker, sector_name) VALUES ($1, $2)
		ON CONFLICT (ticker) DO UPDATE SET sector_name = EXCLUDED.sector_name
	`, ticker, sector); err != nil {
		return fmt.Errorf("failed to assign ticker: %w", err)
	}

	return tx.Commit()
}
