package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day layout used in exports and cache keys
const DateLayout = "2006-01-02"

// NewDecimal creates decimal from float64
func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// Day truncates t to its calendar day at UTC midnight.
// All engine maps are keyed by Day values so that lookups compare equal.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns every calendar day in [start, end], both ends included
func DaysBetween(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}

	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// PriceSample is one daily close for one ticker
type PriceSample struct {
	Ticker       string          `json:"ticker" db:"ticker"`
	Date         time.Time       `json:"date" db:"date"`
	ClosingPrice decimal.Decimal `json:"closing_price" db:"closing_price"`
}
