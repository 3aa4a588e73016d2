package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/pkg/logger"
)

// Worker interface that background workers should implement
type Worker interface {
	// Name returns worker name for logging
	Name() string
	// Run executes one iteration of work
	Run(ctx context.Context) error
}

// Stats describes the outcome of the latest iteration
type Stats struct {
	Runs        int
	Failures    int
	LastRunAt   time.Time
	LastError   error
	LastElapsed time.Duration
}

// runner is a scheduled worker the Group can start and stop
type runner interface {
	Start(ctx context.Context)
	Stop(timeout time.Duration)
}

// recorder runs one iteration and keeps its statistics
type recorder struct {
	worker Worker
	name   string

	statsMu sync.RWMutex
	stats   Stats
}

// Stats returns a copy of the run statistics
func (r *recorder) Stats() Stats {
	r.statsMu.RLock()
	defer r.statsMu.RUnlock()
	return r.stats
}

func (r *recorder) execute(ctx context.Context) {
	started := time.Now()
	err := r.worker.Run(ctx)
	elapsed := time.Since(started)

	r.statsMu.Lock()
	r.stats.Runs++
	r.stats.LastRunAt = started
	r.stats.LastElapsed = elapsed
	r.stats.LastError = err
	if err != nil {
		r.stats.Failures++
	}
	r.statsMu.Unlock()

	if err != nil {
		logger.Error("worker execution failed",
			zap.String("worker", r.name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return
	}

	logger.Debug("worker iteration done",
		zap.String("worker", r.name),
		zap.Duration("elapsed", elapsed),
	)
}

func waitStopped(wg *sync.WaitGroup, name string, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("worker stopped gracefully", zap.String("worker", name))
	case <-time.After(timeout):
		logger.Warn("worker stop timeout", zap.String("worker", name))
	}
}

// PeriodicWorker wraps a Worker with periodic execution
type PeriodicWorker struct {
	recorder
	interval   time.Duration
	runOnStart bool
	wg         sync.WaitGroup
}

// NewPeriodicWorker creates new periodic worker.
// The first iteration runs immediately unless runOnStart is false.
func NewPeriodicWorker(worker Worker, interval time.Duration, runOnStart bool) *PeriodicWorker {
	return &PeriodicWorker{
		recorder:   recorder{worker: worker, name: worker.Name()},
		interval:   interval,
		runOnStart: runOnStart,
	}
}

// Start starts the worker with graceful shutdown support
func (pw *PeriodicWorker) Start(ctx context.Context) {
	pw.wg.Add(1)
	go pw.run(ctx)
}

// Stop waits for graceful shutdown
func (pw *PeriodicWorker) Stop(timeout time.Duration) {
	waitStopped(&pw.wg, pw.name, timeout)
}

func (pw *PeriodicWorker) run(ctx context.Context) {
	defer pw.wg.Done()

	logger.Info("worker started",
		zap.String("worker", pw.name),
		zap.Duration("interval", pw.interval),
	)

	if pw.runOnStart {
		pw.execute(ctx)
	}

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopping", zap.String("worker", pw.name))
			return

		case <-ticker.C:
			// Errors are recorded, the loop keeps going
			pw.execute(ctx)
		}
	}
}

// Group manages multiple workers with graceful shutdown
type Group struct {
	workers []runner
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
}

// NewGroup creates new worker group
func NewGroup(ctx context.Context) *Group {
	ctx, cancel := context.WithCancel(ctx)
	return &Group{
		workers: make([]runner, 0),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add adds an interval worker to group and returns its handle
func (g *Group) Add(worker Worker, interval time.Duration, runOnStart bool) *PeriodicWorker {
	pw := NewPeriodicWorker(worker, interval, runOnStart)
	g.add(pw)
	return pw
}

// AddScheduled adds a cron-scheduled worker to group and returns its handle
func (g *Group) AddScheduled(worker Worker, spec string, runOnStart bool) (*ScheduledWorker, error) {
	sw, err := NewScheduledWorker(worker, spec, runOnStart)
	if err != nil {
		return nil, err
	}
	g.add(sw)
	return sw, nil
}

func (g *Group) add(r runner) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.workers = append(g.workers, r)
}

// Start starts all workers
func (g *Group) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, w := range g.workers {
		w.Start(g.ctx)
	}

	logger.Info("worker group started", zap.Int("workers", len(g.workers)))
}

// Stop stops all workers gracefully
func (g *Group) Stop(timeout time.Duration) {
	logger.Info("stopping worker group...", zap.Int("workers", len(g.workers)))

	g.cancel()

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, w := range g.workers {
		w.Stop(timeout)
	}

	logger.Info("worker group stopped")
}
