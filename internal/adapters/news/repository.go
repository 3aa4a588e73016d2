package news

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

// Repository reads the article signals attached to tickers
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new news repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetArticleSignals returns every article about tickers published on a day in [start, end].
// Rows are returned as stored; clamping and relevance filtering belong to the engine.
func (r *Repository) GetArticleSignals(ctx context.Context, tickers []string, start, end time.Time) ([]models.ArticleSignal, error) {
	if len(tickers) == 0 {
		return nil, nil
	}

	query := `
		SELECT ticker, date, sentiment_score, relevance_score
		FROM articles
		WHERE ticker = ANY($1)
		  AND date >= $2
		  AND date < $3
		ORDER BY date
	`

	var signals []models.ArticleSignal
	err := r.db.SelectContext(ctx, &signals, query,
		pq.Array(tickers),
		models.Day(start),
		models.Day(end).AddDate(0, 0, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}

	logger.Debug("article signals loaded",
		zap.Int("tickers", len(tickers)),
		zap.Int("rows", len(signals)),
	)

	return signals, nil
}

// SaveArticleSignals upserts scored articles keyed by (ticker, title, published time)
func (r *Repository) SaveArticleSignals(ctx context.Context, signals []models.ArticleSignal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO articles (ticker, article_name, date, sentiment_score, relevance_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker, article_name, date) DO UPDATE SET
			sentiment_score = EXCLUDED.sentiment_score,
			relevance_score = EXCLUDED.relevance_score
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range signals {
		if _, err := stmt.ExecContext(ctx, s.Ticker, s.Title, s.Date, s.SentimentScore, s.RelevanceScore); err != nil {
			return 0, fmt.Errorf("failed to upsert article for %s: %w", s.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return len(signals), nil
}
