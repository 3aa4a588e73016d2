package sentiment

import (
	"time"

	"github.com/selivandex/sentiment-index/pkg/models"
)

// Blend parameters
const (
	MinArticles = 10

	sentimentFloor   = 0.05
	sentimentCeiling = 0.30

	MomentumLookbackDays = 125
	StrengthWindowDays   = 365

	sentimentWeight = 0.70
	momentumWeight  = 0.15
	strengthWeight  = 0.15

	// rawBias offsets the upward skew of the blended signal
	rawBias = 0.15
)

// Raw is either a score in [0,1] or the insufficient-data state.
// The zero value is insufficient.
type Raw struct {
	value float64
	valid bool
}

// Insufficient returns the no-data raw score
func Insufficient() Raw {
	return Raw{}
}

// RawValue wraps a computed score
func RawValue(v float64) Raw {
	return Raw{value: v, valid: true}
}

// Value returns the score and whether it was computed
func (r Raw) Value() (float64, bool) {
	return r.value, r.valid
}

// IsInsufficient reports the no-data state
func (r Raw) IsInsufficient() bool {
	return !r.valid
}

// Components is the breakdown of one raw score
type Components struct {
	Articles      int
	Sentiment     float64 // relevance-weighted mean before clamping
	SentimentNorm float64
	MomentumMean  float64 // average fractional change before clamping
	MomentumNorm  float64
	MomentumCount int
	StrengthRatio float64
	StrengthCount int
	Score         float64
}

// RawScore computes the blended score for date, or Insufficient when fewer
// than MinArticles qualifying signals exist that day.
func (s *Snapshot) RawScore(date time.Time) Raw {
	c, ok := s.Components(date)
	if !ok {
		return Insufficient()
	}
	return RawValue(c.Score)
}

// Components computes every sub-signal of the raw score for date.
// The second result is false when the day has too few articles.
func (s *Snapshot) Components(date time.Time) (Components, bool) {
	date = models.Day(date)

	articles := s.articles[date]
	if len(articles) < MinArticles {
		return Components{Articles: len(articles)}, false
	}

	c := Components{Articles: len(articles)}

	c.Sentiment = weightedSentiment(articles)
	c.SentimentNorm = (clamp(c.Sentiment, sentimentFloor, sentimentCeiling) - sentimentFloor) / (sentimentCeiling - sentimentFloor)

	c.MomentumMean, c.MomentumCount = s.momentum(date)
	c.MomentumNorm = (clamp(c.MomentumMean, -1, 1) + 1) / 2

	c.StrengthRatio, c.StrengthCount = s.strength(date)

	blended := sentimentWeight*c.SentimentNorm + momentumWeight*c.MomentumNorm + strengthWeight*c.StrengthRatio
	c.Score = clamp(blended-rawBias, 0, 1)

	return c, true
}

func weightedSentiment(articles []ArticleWeight) float64 {
	var weighted, relevance float64
	for _, a := range articles {
		weighted += a.Sentiment * a.Relevance
		relevance += a.Relevance
	}
	if relevance == 0 {
		return 0
	}
	return weighted / relevance
}

// momentum averages the 125-calendar-day fractional change over tickers that
// have a close on both exact dates. Weekends and holidays simply drop out.
func (s *Snapshot) momentum(date time.Time) (float64, int) {
	past := date.AddDate(0, 0, -MomentumLookbackDays)

	var sum float64
	var count int
	for _, ticker := range s.tickers {
		current, ok := s.priceOn(ticker, date)
		if !ok {
			continue
		}
		previous, ok := s.priceOn(ticker, past)
		if !ok {
			continue
		}
		sum += (current - previous) / previous
		count++
	}

	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), count
}

// strength is the share of qualifying tickers whose latest close in the
// trailing year is that year's high. A ticker needs two closes to qualify.
func (s *Snapshot) strength(date time.Time) (float64, int) {
	from := date.AddDate(0, 0, -StrengthWindowDays)

	var atHigh, qualifying int
	for _, ticker := range s.tickers {
		points := s.window(ticker, from, date)
		if len(points) < 2 {
			continue
		}
		qualifying++

		high := points[0].Price
		for _, p := range points[1:] {
			if p.Price > high {
				high = p.Price
			}
		}
		if points[len(points)-1].Price == high {
			atHigh++
		}
	}

	if qualifying == 0 {
		return 0, 0
	}
	return float64(atHigh) / float64(qualifying), qualifying
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
