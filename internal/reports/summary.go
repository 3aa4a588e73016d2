package reports

import (
	"sort"

	"github.com/cinar/indicator"

	"github.com/selivandex/sentiment-index/pkg/models"
)

// WeeklyPeriod is the moving-average length reported in run summaries
const WeeklyPeriod = 7

// Summarize reduces a run's output to its latest values.
// WeeklyChange compares the last 7-day average with the one a day earlier.
func Summarize(runID string, market []models.MarketScore, bySector map[string][]models.SectorScore, failed []string) models.RunSummary {
	summary := models.RunSummary{
		RunID:         runID,
		FailedSectors: append([]string(nil), failed...),
	}
	sort.Strings(summary.FailedSectors)

	if n := len(market); n > 0 {
		summary.Market = market[n-1]
		summary.Date = market[n-1].Date

		values := make([]float64, n)
		for i, m := range market {
			values[i] = m.Score
		}
		sma := indicator.Sma(WeeklyPeriod, values)
		summary.WeeklyAverage = sma[n-1]
		if n > 1 {
			summary.WeeklyChange = sma[n-1] - sma[n-2]
		}
	}

	names := make([]string, 0, len(bySector))
	for name, series := range bySector {
		if len(series) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		series := bySector[name]
		summary.Sectors = append(summary.Sectors, series[len(series)-1])
	}

	return summary
}
