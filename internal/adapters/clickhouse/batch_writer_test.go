package clickhouse

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-index/pkg/models"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]int
	err     error
}

func (s *recordingSink) flush(ctx context.Context, batch []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]int(nil), batch...))
	return s.err
}

func (s *recordingSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestBatchWriter_FlushesAtMaxBatch(t *testing.T) {
	sink := &recordingSink{}
	bw := NewBatchWriter(3, time.Hour, sink.flush)
	defer bw.Close()

	bw.Add(1, 2)
	assert.Zero(t, sink.total())

	bw.Add(3)
	assert.Equal(t, 3, sink.total())
}

func TestBatchWriter_FlushesOnTimer(t *testing.T) {
	sink := &recordingSink{}
	bw := NewBatchWriter(100, 10*time.Millisecond, sink.flush)
	defer bw.Close()

	bw.Add(1)
	require.Eventually(t, func() bool { return sink.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBatchWriter_CloseFlushesRemainder(t *testing.T) {
	sink := &recordingSink{}
	bw := NewBatchWriter(100, time.Hour, sink.flush)

	bw.Add(1, 2, 3, 4)
	require.NoError(t, bw.Close())

	assert.Equal(t, 4, sink.total())
}

func TestBatchWriter_ReportsFlushError(t *testing.T) {
	boom := errors.New("clickhouse down")
	sink := &recordingSink{err: boom}
	bw := NewBatchWriter(100, time.Hour, sink.flush)

	bw.Add(1)
	assert.ErrorIs(t, bw.Flush(), boom)
	assert.ErrorIs(t, bw.Close(), boom)
}

func TestRowsConversion(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	day := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)

	sector := SectorRows(now, []models.SectorScore{{Sector: "Energy", Date: day, Index: 61.5, Label: models.LabelGreed}})
	require.Len(t, sector, 1)
	assert.Equal(t, IndexRow{ComputedAt: now, Scope: "Energy", Date: day, Sentiment: 61.5, Label: models.LabelGreed}, sector[0])

	market := MarketRows(now, []models.MarketScore{{Date: day, Score: 20, Label: models.LabelExtremeFear}})
	require.Len(t, market, 1)
	assert.Equal(t, MarketScope, market[0].Scope)
	assert.Equal(t, models.LabelExtremeFear, market[0].Label)
}
