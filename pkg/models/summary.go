package models

import "time"

// RunSummary describes the outcome of one index computation run
type RunSummary struct {
	RunID         string        `json:"run_id"`
	Date          time.Time     `json:"date"`
	Market        MarketScore   `json:"market"`
	WeeklyAverage float64       `json:"weekly_average"`
	WeeklyChange  float64       `json:"weekly_change"`
	Sectors       []SectorScore `json:"sectors"` // latest value per sector, by name
	FailedSectors []string      `json:"failed_sectors,omitempty"`
	Elapsed       time.Duration `json:"elapsed"`
}
