package testdb

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/selivandex/sentiment-index/internal/adapters/database"
)

// tables are truncated before every test, children first
var tables = []string{
	"sector_sentiments",
	"market_sentiments",
	"articles",
	"stock_data",
	"stocks",
	"sectors",
}

// TestDB wraps a migrated, empty test database
type TestDB struct {
	DB *database.DB
}

// Setup connects to TEST_DATABASE_URL, applies migrations and empties every table.
// Tests are skipped when the variable is not set.
func Setup(t *testing.T) *TestDB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(conn.DB, migrationsPath()); err != nil {
		conn.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	tdb := &TestDB{DB: database.Wrap(conn)}
	tdb.Truncate(t)

	t.Cleanup(func() {
		if err := tdb.DB.Close(); err != nil {
			t.Logf("warning: failed to close database: %v", err)
		}
	})

	return tdb
}

// migrationsPath resolves the repository migrations directory from this file
func migrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// Truncate removes all rows from every table
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range tables {
		tdb.Exec(t, "TRUNCATE TABLE "+table+" CASCADE")
	}
}

// Exec executes SQL against the test database
func (tdb *TestDB) Exec(t *testing.T, query string, args ...interface{}) {
	t.Helper()

	if _, err := tdb.DB.DB().Exec(query, args...); err != nil {
		t.Fatalf("failed to execute query: %v\nQuery: %s", err, query)
	}
}

// Count returns the number of rows in table
func (tdb *TestDB) Count(t *testing.T, table string) int {
	t.Helper()

	var n int
	if err := tdb.DB.DB().QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

// SeedSector inserts a sector and its tickers
func (tdb *TestDB) SeedSector(t *testing.T, sector string, tickers ...string) {
	t.Helper()

	tdb.Exec(t, `INSERT INTO sectors (name) VALUES ($1) ON CONFLICT DO NOTHING`, sector)
	for _, ticker := range tickers {
		tdb.Exec(t, `INSERT INTO stocks (ticker, sector_name) VALUES ($1, $2)`, ticker, sector)
	}
}

// SeedArticles inserts n articles for ticker on date with the same scores
func (tdb *TestDB) SeedArticles(t *testing.T, ticker string, date time.Time, n int, sentiment, relevance float64) {
	t.Helper()

	for i := 0; i < n; i++ {
		tdb.Exec(t, `
			INSERT INTO articles (ticker, article_name, date, sentiment_score, relevance_score, url)
			VALUES ($1, $2, $3, $4, $5, '')
		`, ticker, ticker+" article "+strconv.Itoa(i), date.Add(time.Duration(i)*time.Minute),
			decimal.NewFromFloat(sentiment), decimal.NewFromFloat(relevance))
	}
}

// SeedClose inserts one daily close
func (tdb *TestDB) SeedClose(t *testing.T, ticker string, date time.Time, price float64) {
	t.Helper()

	tdb.Exec(t, `
		INSERT INTO stock_data (ticker, date, closing_price, market_cap)
		VALUES ($1, $2, $3, 0)
	`, ticker, date, decimal.NewFromFloat(price))
}
