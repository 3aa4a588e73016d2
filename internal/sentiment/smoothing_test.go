package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-index/pkg/models"
)

func push(p *Pipeline, raws ...Raw) []DailyValue {
	d := day(2024, 1, 1)
	out := make([]DailyValue, len(raws))
	for i, r := range raws {
		out[i] = p.Push(d.AddDate(0, 0, i), r)
	}
	return out
}

func TestPipeline_TrailingMean(t *testing.T) {
	got := push(NewPipeline(), RawValue(0.3), RawValue(0.6), RawValue(0.9), RawValue(0.0))

	assert.InDelta(t, 30, got[0].Smoothed, 1e-9)
	assert.InDelta(t, 45, got[1].Smoothed, 1e-9)
	assert.InDelta(t, 60, got[2].Smoothed, 1e-9)
	assert.InDelta(t, 50, got[3].Smoothed, 1e-9, "oldest value leaves the window")
}

func TestPipeline_FirstDayInsufficient(t *testing.T) {
	got := push(NewPipeline(), Insufficient())

	assert.True(t, got[0].Carried)
	assert.Equal(t, 50.0, got[0].Input)
	assert.Equal(t, 50.0, got[0].Smoothed)
}

func TestPipeline_CarriesPreviousSmoothed(t *testing.T) {
	got := push(NewPipeline(), RawValue(0.6), Insufficient())

	assert.True(t, got[1].Carried)
	assert.Equal(t, 60.0, got[1].Input)
	assert.InDelta(t, 60, got[1].Smoothed, 1e-9)
	assert.Equal(t, models.LabelGreed, models.InterpretIndex(got[1].Smoothed))
}

func TestPipeline_CarryFloor(t *testing.T) {
	got := push(NewPipeline(), RawValue(0), RawValue(0), Insufficient())

	assert.Equal(t, 5.0, got[2].Input)
	assert.InDelta(t, 5.0/3.0, got[2].Smoothed, 1e-9)
}

// A carried day re-enters the window as an input, so one sparse day keeps
// weighing on the next two smoothed values.
func TestPipeline_CarriedValueIsResmoothed(t *testing.T) {
	got := push(NewPipeline(), RawValue(0.9), RawValue(0.3), Insufficient(), RawValue(0.3))

	assert.InDelta(t, 60, got[1].Smoothed, 1e-9)
	assert.Equal(t, 60.0, got[2].Input)
	assert.InDelta(t, 60, got[2].Smoothed, 1e-9)
	// window is [30, 60, 30]
	assert.InDelta(t, 40, got[3].Smoothed, 1e-9)
}

func TestDaily_CoversEveryDay(t *testing.T) {
	start := day(2024, 3, 1)
	end := day(2024, 3, 5)
	// articles only on the second day
	snap := preload(t, []string{"AAA"}, start, end, signals(10, "AAA", start.AddDate(0, 0, 1), 0.2, 1), nil)

	daily := snap.Daily(start, end)
	require.Len(t, daily, 5)

	assert.True(t, daily[0].Carried)
	assert.False(t, daily[1].Carried)
	assert.InDelta(t, (50+34.5)/2, daily[1].Smoothed, 1e-9)
	for i, d := range daily {
		assert.Equal(t, start.AddDate(0, 0, i), d.Date)
		assert.GreaterOrEqual(t, d.Smoothed, 0.0)
		assert.LessOrEqual(t, d.Smoothed, 100.0)
	}

	series := snap.SmoothedSeries("Energy", start, end)
	require.Len(t, series, 5)
	for i, s := range series {
		assert.Equal(t, "Energy", s.Sector)
		assert.Equal(t, daily[i].Smoothed, s.Index)
		assert.Equal(t, models.InterpretIndex(s.Index), s.Label)
	}
}
