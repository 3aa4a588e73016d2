package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArticleSignal is the sentiment/relevance pair the provider attached to one article about one ticker.
// Values are kept as stored; the engine clamps them on ingestion.
type ArticleSignal struct {
	Ticker         string          `json:"ticker" db:"ticker"`
	Title          string          `json:"title,omitempty" db:"article_name"`
	Date           time.Time       `json:"date" db:"date"`
	SentimentScore decimal.Decimal `json:"sentiment_score" db:"sentiment_score"`
	RelevanceScore decimal.Decimal `json:"relevance_score" db:"relevance_score"`
}
