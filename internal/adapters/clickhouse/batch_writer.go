package clickhouse

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/pkg/logger"
)

// FlushFunc writes one batch
type FlushFunc[T any] func(ctx context.Context, batch []T) error

// BatchWriter buffers records and writes them in batches, either when the
// buffer reaches maxBatch or every maxWait, whichever comes first
type BatchWriter[T any] struct {
	buffer      []T
	bufferMu    sync.Mutex
	maxBatch    int
	flushTicker *time.Ticker
	flushFunc   FlushFunc[T]
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	errMu   sync.Mutex
	lastErr error
}

// NewBatchWriter creates new batch writer
func NewBatchWriter[T any](maxBatch int, maxWait time.Duration, flushFunc FlushFunc[T]) *BatchWriter[T] {
	ctx, cancel := context.WithCancel(context.Background())

	bw := &BatchWriter[T]{
		buffer:      make([]T, 0, maxBatch),
		maxBatch:    maxBatch,
		flushTicker: time.NewTicker(maxWait),
		flushFunc:   flushFunc,
		ctx:         ctx,
		cancel:      cancel,
	}

	bw.wg.Add(1)
	go bw.autoFlush()

	return bw
}

// Add adds records to buffer
func (bw *BatchWriter[T]) Add(records ...T) {
	bw.bufferMu.Lock()
	bw.buffer = append(bw.buffer, records...)
	shouldFlush := len(bw.buffer) >= bw.maxBatch
	bw.bufferMu.Unlock()

	if shouldFlush {
		bw.flush()
	}
}

// Flush writes whatever is buffered now
func (bw *BatchWriter[T]) Flush() error {
	bw.flush()
	return bw.Err()
}

// Err returns the error of the most recent failed flush
func (bw *BatchWriter[T]) Err() error {
	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.lastErr
}

func (bw *BatchWriter[T]) autoFlush() {
	defer bw.wg.Done()

	for {
		select {
		case <-bw.flushTicker.C:
			bw.flush()
		case <-bw.ctx.Done():
			// Final flush before exit
			bw.flush()
			return
		}
	}
}

func (bw *BatchWriter[T]) flush() {
	bw.bufferMu.Lock()
	if len(bw.buffer) == 0 {
		bw.bufferMu.Unlock()
		return
	}

	toWrite := make([]T, len(bw.buffer))
	copy(toWrite, bw.buffer)
	bw.buffer = bw.buffer[:0]
	bw.bufferMu.Unlock()

	// Detached from bw.ctx so the final flush in Close still runs
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := bw.flushFunc(ctx, toWrite)

	bw.errMu.Lock()
	bw.lastErr = err
	bw.errMu.Unlock()

	if err != nil {
		logger.Error("failed to flush batch to ClickHouse",
			zap.Int("records", len(toWrite)),
			zap.Error(err),
		)
		return
	}

	logger.Debug("flushed batch to ClickHouse", zap.Int("records", len(toWrite)))
}

// Close stops the writer and flushes remaining data
func (bw *BatchWriter[T]) Close() error {
	bw.flushTicker.Stop()
	bw.cancel()
	bw.wg.Wait()
	return bw.Err()
}

// NewIndexBatchWriter creates a batch writer for archived index rows
func NewIndexBatchWriter(repo *Repository, maxBatch int, maxWait time.Duration) *BatchWriter[IndexRow] {
	return NewBatchWriter(maxBatch, maxWait, repo.SaveIndexRows)
}
