package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-index/pkg/models"
)

func TestRawScore_SentimentOnly(t *testing.T) {
	d := day(2024, 6, 10)
	snap := preload(t, []string{"AAA"}, d, d, signals(10, "AAA", d, 0.20, 1.0), nil)

	c, ok := snap.Components(d)
	require.True(t, ok)
	assert.InDelta(t, 0.60, c.SentimentNorm, 1e-9)
	assert.InDelta(t, 0.5, c.MomentumNorm, 1e-9, "no momentum samples is neutral")
	assert.Zero(t, c.StrengthRatio)

	v, ok := snap.RawScore(d).Value()
	require.True(t, ok)
	assert.InDelta(t, 0.345, v, 1e-9)

	series := snap.SmoothedSeries("Energy", d, d)
	require.Len(t, series, 1)
	assert.InDelta(t, 34.5, series[0].Index, 1e-9)
	assert.Equal(t, models.LabelFear, series[0].Label)
}

func TestRawScore_Insufficient(t *testing.T) {
	d := day(2024, 6, 10)
	arts := signals(9, "AAA", d, 0.25, 1.0)
	arts = append(arts, signal("AAA", d, 0.25, 0.09)) // tenth is below the relevance floor

	snap := preload(t, []string{"AAA"}, d, d, arts, nil)
	assert.True(t, snap.RawScore(d).IsInsufficient())

	c, ok := snap.Components(d)
	assert.False(t, ok)
	assert.Equal(t, 9, c.Articles)

	assert.True(t, Insufficient().IsInsufficient())
	assert.True(t, Raw{}.IsInsufficient())
}

func TestRawScore_WeightsByRelevance(t *testing.T) {
	d := day(2024, 6, 10)
	arts := append(signals(5, "AAA", d, 0.30, 1.0), signals(5, "AAA", d, 0.05, 0.25)...)
	snap := preload(t, []string{"AAA"}, d, d, arts, nil)

	c, ok := snap.Components(d)
	require.True(t, ok)
	// (5*0.30 + 5*0.05*0.25) / (5 + 5*0.25)
	assert.InDelta(t, 0.25, c.Sentiment, 1e-9)
}

func TestRawScore_Clamps(t *testing.T) {
	d := day(2024, 6, 10)
	past := d.AddDate(0, 0, -MomentumLookbackDays)

	t.Run("high", func(t *testing.T) {
		snap := preload(t, []string{"AAA"}, d, d,
			signals(10, "AAA", d, 0.9, 1.0),
			[]models.PriceSample{closeAt("AAA", past, 100), closeAt("AAA", d, 400)})

		c, ok := snap.Components(d)
		require.True(t, ok)
		assert.Equal(t, 1.0, c.SentimentNorm)
		assert.InDelta(t, 3.0, c.MomentumMean, 1e-9)
		assert.Equal(t, 1.0, c.MomentumNorm)
		assert.Equal(t, 1.0, c.StrengthRatio)
		assert.InDelta(t, 0.85, c.Score, 1e-9)
	})

	t.Run("low", func(t *testing.T) {
		snap := preload(t, []string{"AAA"}, d, d,
			signals(10, "AAA", d, -0.8, 1.0),
			[]models.PriceSample{closeAt("AAA", past, 100), closeAt("AAA", d, 50)})

		c, ok := snap.Components(d)
		require.True(t, ok)
		assert.Zero(t, c.SentimentNorm)
		assert.InDelta(t, 0.25, c.MomentumNorm, 1e-9)
		assert.Zero(t, c.StrengthRatio)
		assert.Zero(t, c.Score, "blend below the bias clamps to zero")
	})
}

func TestMomentum_ExactCalendarDay(t *testing.T) {
	d := day(2024, 6, 10)
	snap := preload(t, []string{"AAA", "BBB"}, d, d,
		signals(10, "AAA", d, 0.2, 1.0),
		[]models.PriceSample{
			closeAt("AAA", d.AddDate(0, 0, -MomentumLookbackDays), 100),
			closeAt("AAA", d, 150),
			// no close exactly 125 days back, so BBB is skipped rather than matched to a neighbour
			closeAt("BBB", d.AddDate(0, 0, -MomentumLookbackDays+1), 100),
			closeAt("BBB", d, 10),
		})

	c, ok := snap.Components(d)
	require.True(t, ok)
	assert.Equal(t, 1, c.MomentumCount)
	assert.InDelta(t, 0.5, c.MomentumMean, 1e-9)
	assert.InDelta(t, 0.75, c.MomentumNorm, 1e-9)
}

func TestStrength_Ratio(t *testing.T) {
	d := day(2024, 6, 10)
	snap := preload(t, []string{"UP", "DOWN", "ONE", "OLD"}, d, d,
		signals(10, "UP", d, 0.2, 1.0),
		[]models.PriceSample{
			closeAt("UP", d.AddDate(0, 0, -10), 100),
			closeAt("UP", d, 120),
			closeAt("DOWN", d.AddDate(0, 0, -10), 100),
			closeAt("DOWN", d, 90),
			closeAt("ONE", d, 50), // a single close does not qualify
			closeAt("OLD", d.AddDate(0, 0, -400), 500),
			closeAt("OLD", d.AddDate(0, 0, -5), 10),
			closeAt("OLD", d, 20),
		})

	c, ok := snap.Components(d)
	require.True(t, ok)
	assert.Equal(t, 3, c.StrengthCount)
	assert.InDelta(t, 2.0/3.0, c.StrengthRatio, 1e-9)
}
