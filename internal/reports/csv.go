package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/selivandex/sentiment-index/pkg/models"
)

var header = []string{"Date", "Sentiment", "Label"}

// WriteSectorCSV writes Date,Sentiment,Label rows with two-decimal scores
func WriteSectorCSV(w io.Writer, series []models.SectorScore) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range series {
		if err := cw.Write(row(s.Date.Format(models.DateLayout), s.Index, s.Label)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMarketCSV writes the market series in the sector CSV layout
func WriteMarketCSV(w io.Writer, series []models.MarketScore) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range series {
		if err := cw.Write(row(s.Date.Format(models.DateLayout), s.Score, s.Label)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(date string, score float64, label models.Label) []string {
	return []string{date, fmt.Sprintf("%.2f", score), string(label)}
}

// SectorFileName keeps only letters and digits of the sector name
func SectorFileName(sector string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, sector)
	return "SectorSentiment_" + clean + ".csv"
}

// writeFile creates path (and its directory) and streams into it
func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
