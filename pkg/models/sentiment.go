package models

import "time"

// Label is the discrete fear/greed band of an index value
type Label string

const (
	LabelExtremeFear  Label = "Extreme Fear"
	LabelFear         Label = "Fear"
	LabelNeutral      Label = "Neutral"
	LabelGreed        Label = "Greed"
	LabelExtremeGreed Label = "Extreme Greed"
)

// Labels lists every band from most fearful to most greedy
var Labels = []Label{LabelExtremeFear, LabelFear, LabelNeutral, LabelGreed, LabelExtremeGreed}

// InterpretIndex maps a 0-100 index onto its band.
// Lower bounds are inclusive: 30 is Fear, 45 Neutral, 55 Greed, 70 Extreme Greed.
func InterpretIndex(index float64) Label {
	switch {
	case index < 30:
		return LabelExtremeFear
	case index < 45:
		return LabelFear
	case index < 55:
		return LabelNeutral
	case index < 70:
		return LabelGreed
	default:
		return LabelExtremeGreed
	}
}

// Rank returns the position of the label in Labels, -1 if unknown
func (l Label) Rank() int {
	for i, candidate := range Labels {
		if candidate == l {
			return i
		}
	}
	return -1
}

// SectorScore is one day of a sector's smoothed index
type SectorScore struct {
	Sector string    `json:"sector" db:"sector_name"`
	Date   time.Time `json:"date" db:"date"`
	Index  float64   `json:"index" db:"sentiment"`
	Label  Label     `json:"label" db:"label"`
}

// MarketScore is one day of the market-wide index
type MarketScore struct {
	Date  time.Time `json:"date" db:"date"`
	Score float64   `json:"score" db:"sentiment"`
	Label Label     `json:"label" db:"label"`
}
