package sentiment

import (
	"math"
	"time"

	"github.com/selivandex/sentiment-index/pkg/models"
)

const (
	// SmoothingWindow is the number of trailing days averaged into one index value
	SmoothingWindow = 3

	initialCarry = 50.0
	carryFloor   = 5.0
)

// DailyValue is one day of the smoothing pipeline
type DailyValue struct {
	Date     time.Time
	Input    float64 // scaled raw score, or the carried value
	Carried  bool
	Smoothed float64
}

// Pipeline turns a day-ordered stream of raw scores into smoothed values.
// Each instance belongs to exactly one series.
type Pipeline struct {
	inputs       []float64
	lastSmoothed float64
	started      bool
}

// NewPipeline creates an empty smoothing pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{inputs: make([]float64, 0, SmoothingWindow)}
}

// Push feeds the next calendar day. An insufficient raw score repeats the
// previous day's smoothed value (50 before the first day), floored at 5,
// and that carried value is smoothed again like any computed one.
func (p *Pipeline) Push(date time.Time, raw Raw) DailyValue {
	dv := DailyValue{Date: date}

	if v, ok := raw.Value(); ok {
		dv.Input = clamp(v*100, 0, 100)
	} else {
		carry := initialCarry
		if p.started {
			carry = p.lastSmoothed
		}
		dv.Input = math.Max(carry, carryFloor)
		dv.Carried = true
	}

	p.inputs = append(p.inputs, dv.Input)
	if len(p.inputs) > SmoothingWindow {
		p.inputs = p.inputs[1:]
	}

	var sum float64
	for _, v := range p.inputs {
		sum += v
	}
	dv.Smoothed = clamp(sum/float64(len(p.inputs)), 0, 100)

	p.lastSmoothed = dv.Smoothed
	p.started = true
	return dv
}

// Daily runs the pipeline over every calendar day in [start, end]
func (s *Snapshot) Daily(start, end time.Time) []DailyValue {
	days := models.DaysBetween(start, end)
	out := make([]DailyValue, 0, len(days))

	p := NewPipeline()
	for _, day := range days {
		out = append(out, p.Push(day, s.RawScore(day)))
	}
	return out
}

// SmoothedSeries returns the labelled trailing index for every day in [start, end]
func (s *Snapshot) SmoothedSeries(sector string, start, end time.Time) []models.SectorScore {
	daily := s.Daily(start, end)

	out := make([]models.SectorScore, len(daily))
	for i, d := range daily {
		out[i] = models.SectorScore{
			Sector: sector,
			Date:   d.Date,
			Index:  d.Smoothed,
			Label:  models.InterpretIndex(d.Smoothed),
		}
	}
	return out
}
