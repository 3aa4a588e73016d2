package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/pkg/logger"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ScheduledWorker runs a Worker at the times of a cron expression
type ScheduledWorker struct {
	recorder
	spec       string
	schedule   cron.Schedule
	runOnStart bool
	now        func() time.Time
	wg         sync.WaitGroup
}

// NewScheduledWorker parses spec (five fields or a descriptor such as @daily)
func NewScheduledWorker(worker Worker, spec string, runOnStart bool) (*ScheduledWorker, error) {
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &ScheduledWorker{
		recorder:   recorder{worker: worker, name: worker.Name()},
		spec:       spec,
		schedule:   schedule,
		runOnStart: runOnStart,
		now:        time.Now,
	}, nil
}

// Next returns the first activation strictly after t
func (sw *ScheduledWorker) Next(t time.Time) time.Time {
	return sw.schedule.Next(t)
}

// Start starts the worker with graceful shutdown support
func (sw *ScheduledWorker) Start(ctx context.Context) {
	sw.wg.Add(1)
	go sw.run(ctx)
}

// Stop waits for graceful shutdown
func (sw *ScheduledWorker) Stop(timeout time.Duration) {
	waitStopped(&sw.wg, sw.name, timeout)
}

func (sw *ScheduledWorker) run(ctx context.Context) {
	defer sw.wg.Done()

	logger.Info("worker started",
		zap.String("worker", sw.name),
		zap.String("schedule", sw.spec),
	)

	if sw.runOnStart {
		sw.execute(ctx)
	}

	for {
		next := sw.schedule.Next(sw.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("worker stopping", zap.String("worker", sw.name))
			return

		case <-timer.C:
			sw.execute(ctx)
		}
	}
}
