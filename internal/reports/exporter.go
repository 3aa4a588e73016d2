package reports

import (
	"io"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

// Exporter writes computed series as CSV files
type Exporter struct {
	dir        string
	marketFile string
}

// NewExporter creates an exporter writing sector files into dir
// and the market series to marketFile
func NewExporter(dir, marketFile string) *Exporter {
	return &Exporter{dir: dir, marketFile: marketFile}
}

// SectorPath returns the file a sector series is written to
func (e *Exporter) SectorPath(sector string) string {
	return filepath.Join(e.dir, SectorFileName(sector))
}

// MarketPath returns the file the market series is written to
func (e *Exporter) MarketPath() string {
	return e.marketFile
}

// ExportSector writes one sector file
func (e *Exporter) ExportSector(sector string, series []models.SectorScore) (string, error) {
	path := e.SectorPath(sector)
	if err := writeFile(path, func(w io.Writer) error { return WriteSectorCSV(w, series) }); err != nil {
		return "", err
	}
	logger.Info("sector sentiment exported",
		zap.String("sector", sector),
		zap.String("file", path),
		zap.Int("rows", len(series)),
	)
	return path, nil
}

// ExportSectors writes every sector in name order and stops at the first failure
func (e *Exporter) ExportSectors(bySector map[string][]models.SectorScore) ([]string, error) {
	names := make([]string, 0, len(bySector))
	for name := range bySector {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path, err := e.ExportSector(name, bySector[name])
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ExportMarket writes the market file
func (e *Exporter) ExportMarket(series []models.MarketScore) (string, error) {
	if err := writeFile(e.marketFile, func(w io.Writer) error { return WriteMarketCSV(w, series) }); err != nil {
		return "", err
	}
	logger.Info("market sentiment exported",
		zap.String("file", e.marketFile),
		zap.Int("rows", len(series)),
	)
	return e.marketFile, nil
}
