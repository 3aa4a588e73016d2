package models

import "github.com/shopspring/decimal"

// ToFloat64 safely converts decimal to float64
func ToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// RoundScore converts an index value to the two-decimal NUMERIC stored in the database
func RoundScore(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
