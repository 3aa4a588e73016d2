package sentiment

import (
	"sort"
	"time"

	"github.com/selivandex/sentiment-index/pkg/models"
)

// Market adjustment parameters
const (
	historyDepth = 5

	neutralBase = 50.0

	risingThreshold  = 50.0
	fearfulThreshold = 40.0

	momentumPriors   = 3
	maxMomentumBoost = 0.10

	accelerationFloor  = 55.0
	accelerationFactor = 1.08

	breadthStep = 2.5

	sustainedFearCeiling = 45.0
	sustainedFearPrior   = 50.0
)

// MarketBreakdown records each stage of one day's market index
type MarketBreakdown struct {
	Base              float64
	Rising            int
	Fearful           int
	Sectors           int
	MomentumBoost     float64 // multiplier minus one, zero when not applied
	AfterMomentum     float64
	Accelerated       bool
	AfterAcceleration float64
	BreadthBonus      bool
	BreadthPenalty    bool
	SustainedFear     bool
	Final             float64
}

type sectorWeight struct {
	name   string
	weight float64
}

// MarketAggregator folds per-sector smoothed indexes into one market index.
// It carries the last five final values, so one instance serves exactly one
// series and must be fed dates in chronological order.
type MarketAggregator struct {
	weights []sectorWeight
	history []float64 // most recent first
}

// NewMarketAggregator creates an aggregator for a fixed sector weighting.
// Sectors are visited in name order so float sums do not depend on map iteration.
func NewMarketAggregator(weights map[string]float64) *MarketAggregator {
	ws := make([]sectorWeight, 0, len(weights))
	for name, w := range weights {
		ws = append(ws, sectorWeight{name: name, weight: w})
	}
	sort.Slice(ws, func(i, j int) bool { return ws[i].name < ws[j].name })

	return &MarketAggregator{
		weights: ws,
		history: make([]float64, 0, historyDepth+1),
	}
}

// History returns the buffered final values, most recent first
func (m *MarketAggregator) History() []float64 {
	return append([]float64(nil), m.history...)
}

// Next scores one date. Sectors missing from scores are left out of the
// weighted base and the breadth counts for that day.
func (m *MarketAggregator) Next(date time.Time, scores map[string]float64) (models.MarketScore, MarketBreakdown) {
	var b MarketBreakdown

	var weighted, total float64
	for _, sw := range m.weights {
		score, ok := scores[sw.name]
		if !ok {
			continue
		}
		b.Sectors++
		if score > risingThreshold {
			b.Rising++
		}
		if score < fearfulThreshold {
			b.Fearful++
		}
		weighted += score * sw.weight
		total += sw.weight
	}

	b.Base = neutralBase
	if total > 0 {
		b.Base = weighted / total
	}
	score := b.Base

	if len(m.history) >= momentumPriors && exceedsAll(score, m.history) {
		factor := (score - mean(m.history[:momentumPriors])) / 100
		if factor > maxMomentumBoost {
			factor = maxMomentumBoost
		}
		b.MomentumBoost = factor
		score *= 1 + factor
	}
	b.AfterMomentum = score

	if score > accelerationFloor && len(m.history) >= 2 && score > m.history[0] && m.history[0] > m.history[1] {
		score *= accelerationFactor
		b.Accelerated = true
	}
	b.AfterAcceleration = score

	// 70% and 50% thresholds in integer form
	if b.Sectors > 0 && b.Rising*10 >= b.Sectors*7 {
		score += breadthStep
		b.BreadthBonus = true
	}
	if b.Sectors > 0 && b.Fearful*2 >= b.Sectors {
		score -= breadthStep
		b.BreadthPenalty = true
	}

	if score < sustainedFearCeiling && len(m.history) >= momentumPriors && allBelow(m.history[:momentumPriors], sustainedFearPrior) {
		score -= breadthStep
		b.SustainedFear = true
	}

	score = clamp(score, 0, 100)
	b.Final = score

	m.history = append([]float64{score}, m.history...)
	if len(m.history) > historyDepth {
		m.history = m.history[:historyDepth]
	}

	return models.MarketScore{
		Date:  models.Day(date),
		Score: score,
		Label: models.InterpretIndex(score),
	}, b
}

func exceedsAll(v float64, values []float64) bool {
	for _, x := range values {
		if v <= x {
			return false
		}
	}
	return true
}

func allBelow(values []float64, limit float64) bool {
	for _, x := range values {
		if x >= limit {
			return false
		}
	}
	return true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
