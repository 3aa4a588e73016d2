package reports

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-index/pkg/models"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestWriteSectorCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSectorCSV(&buf, []models.SectorScore{
		{Sector: "Energy", Date: day(1), Index: 34.5, Label: models.LabelFear},
		{Sector: "Energy", Date: day(2), Index: 70, Label: models.LabelExtremeGreed},
	})
	require.NoError(t, err)

	assert.Equal(t, "Date,Sentiment,Label\n2024-01-01,34.50,Fear\n2024-01-02,70.00,Extreme Greed\n", buf.String())
}

func TestWriteMarketCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarketCSV(&buf, nil))
	assert.Equal(t, "Date,Sentiment,Label\n", buf.String())
}

func TestSectorFileName(t *testing.T) {
	tests := map[string]string{
		"Information Technology": "SectorSentiment_InformationTechnology.csv",
		"Real Estate":            "SectorSentiment_RealEstate.csv",
		"S&P 500 / Misc.":        "SectorSentiment_SP500Misc.csv",
	}
	for in, want := range tests {
		assert.Equal(t, want, SectorFileName(in), in)
	}
}

func TestExporter_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(filepath.Join(dir, "SectorLogs"), filepath.Join(dir, "MarketSentiment.csv"))

	paths, err := exp.ExportSectors(map[string][]models.SectorScore{
		"Utilities": {{Sector: "Utilities", Date: day(1), Index: 50, Label: models.LabelNeutral}},
		"Energy":    {{Sector: "Energy", Date: day(1), Index: 10, Label: models.LabelExtremeFear}},
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "SectorLogs", "SectorSentiment_Energy.csv"), paths[0])

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-01-01,50.00,Neutral")

	marketPath, err := exp.ExportMarket([]models.MarketScore{{Date: day(1), Score: 81.124, Label: models.LabelExtremeGreed}})
	require.NoError(t, err)
	data, err = os.ReadFile(marketPath)
	require.NoError(t, err)
	assert.Equal(t, "Date,Sentiment,Label\n2024-01-01,81.12,Extreme Greed\n", string(data))
}

func TestSummarize(t *testing.T) {
	market := make([]models.MarketScore, 0, 8)
	for i := 1; i <= 8; i++ {
		score := float64(i * 10)
		market = append(market, models.MarketScore{Date: day(i), Score: score, Label: models.InterpretIndex(score)})
	}
	bySector := map[string][]models.SectorScore{
		"Utilities": {{Sector: "Utilities", Date: day(7), Index: 20}, {Sector: "Utilities", Date: day(8), Index: 25}},
		"Energy":    {{Sector: "Energy", Date: day(8), Index: 60}},
		"Empty":     nil,
	}

	s := Summarize("run-1", market, bySector, []string{"Materials", "Financials"})

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, day(8), s.Date)
	assert.InDelta(t, 80, s.Market.Score, 1e-9)
	// mean(20..80) = 50, previous mean(10..70) = 40
	assert.InDelta(t, 50, s.WeeklyAverage, 1e-9)
	assert.InDelta(t, 10, s.WeeklyChange, 1e-9)
	require.Len(t, s.Sectors, 2)
	assert.Equal(t, "Energy", s.Sectors[0].Sector)
	assert.InDelta(t, 25, s.Sectors[1].Index, 1e-9)
	assert.Equal(t, []string{"Financials", "Materials"}, s.FailedSectors)
}

func TestSummarize_ShortHistory(t *testing.T) {
	s := Summarize("r", []models.MarketScore{{Date: day(1), Score: 42}}, nil, nil)
	assert.InDelta(t, 42, s.WeeklyAverage, 1e-9)
	assert.Zero(t, s.WeeklyChange)
	assert.Empty(t, s.Sectors)
}
