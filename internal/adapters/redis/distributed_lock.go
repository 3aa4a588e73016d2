package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/pkg/logger"
)

// DistributedLock is a RedLock-backed RunLock that renews itself until released
type DistributedLock struct {
	lockManager *redlock.RedLock
	job         string
	lockName    string
	ttl         time.Duration

	mu     sync.Mutex
	locked bool
	stop   chan struct{}
}

// NewDistributedLock creates new distributed lock for job
func NewDistributedLock(lockManager *redlock.RedLock, job string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		lockManager: lockManager,
		job:         job,
		lockName:    fmt.Sprintf("sentiment:lock:%s", job),
		ttl:         ttl,
	}
}

// TryAcquire attempts to take the lock. A lock held elsewhere is not an error.
func (dl *DistributedLock) TryAcquire(ctx context.Context) (bool, error) {
	expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl)
	if err != nil {
		logger.Debug("run lock held elsewhere",
			zap.String("job", dl.job),
			zap.String("lock_name", dl.lockName),
		)
		return false, nil
	}
	if expiry <= 0 {
		return false, fmt.Errorf("failed to acquire lock: invalid expiry %v", expiry)
	}

	dl.mu.Lock()
	dl.locked = true
	dl.stop = make(chan struct{})
	stop := dl.stop
	dl.mu.Unlock()

	logger.Info("run lock acquired",
		zap.String("job", dl.job),
		zap.Duration("ttl", dl.ttl),
	)

	go dl.renewLock(ctx, stop)

	return true, nil
}

// Release releases the lock and stops renewal
func (dl *DistributedLock) Release(ctx context.Context) error {
	dl.mu.Lock()
	if !dl.locked {
		dl.mu.Unlock()
		return nil
	}
	dl.locked = false
	close(dl.stop)
	dl.mu.Unlock()

	// An expired lock fails to unlock; nothing else to do
	if err := dl.lockManager.UnLock(ctx, dl.lockName); err != nil {
		logger.Warn("failed to release run lock", zap.String("job", dl.job), zap.Error(err))
		return nil
	}

	logger.Info("run lock released", zap.String("job", dl.job))
	return nil
}

// Held reports whether the lock is still owned
func (dl *DistributedLock) Held() bool {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.locked
}

// Name returns the lock key
func (dl *DistributedLock) Name() string {
	return dl.lockName
}

// renewLock re-takes the lock at 2/3 of its TTL.
// redlock-go has no extend, so renewal is unlock followed by lock.
func (dl *DistributedLock) renewLock(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker((dl.ttl * 2) / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := dl.lockManager.UnLock(ctx, dl.lockName); err != nil {
				dl.lose(err)
				return
			}
			expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl)
			if err != nil || expiry <= 0 {
				dl.lose(err)
				return
			}
			logger.Debug("run lock renewed", zap.String("job", dl.job), zap.Duration("expiry", expiry))
		}
	}
}

func (dl *DistributedLock) lose(err error) {
	dl.mu.Lock()
	dl.locked = false
	dl.mu.Unlock()

	logger.Error("run lock lost", zap.String("job", dl.job), zap.Error(err))
}
