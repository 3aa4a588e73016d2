package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterpretIndex(t *testing.T) {
	tests := []struct {
		index float64
		want  Label
	}{
		{0, LabelExtremeFear},
		{29.99, LabelExtremeFear},
		{30, LabelFear},
		{44.99, LabelFear},
		{45, LabelNeutral},
		{54.99, LabelNeutral},
		{55, LabelGreed},
		{69.99, LabelGreed},
		{70, LabelExtremeGreed},
		{100, LabelExtremeGreed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, InterpretIndex(tt.index), "index %.2f", tt.index)
	}
}

func TestLabelRank(t *testing.T) {
	assert.Equal(t, 0, LabelExtremeFear.Rank())
	assert.Equal(t, 4, LabelExtremeGreed.Rank())
	assert.Equal(t, -1, Label("Panic").Rank())
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2024, 2, 28, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)

	days := DaysBetween(start, end)
	assert.Equal(t, []time.Time{
		time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, days)

	assert.Nil(t, DaysBetween(end, start))
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, "78.62", RoundScore(78.624).String())
	assert.Equal(t, "34.5", RoundScore(34.5).String())
}
