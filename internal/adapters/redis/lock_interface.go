package redis

import (
	"context"
	"time"
)

// RunLock guards a job so only one replica executes it at a time.
// Implementations other than Redis (PostgreSQL advisory locks, etcd) fit the same shape.
type RunLock interface {
	// TryAcquire returns false without error when another holder owns the lock
	TryAcquire(ctx context.Context) (bool, error)

	// Release drops the lock if held
	Release(ctx context.Context) error

	// Held reports whether this instance still owns the lock
	Held() bool

	// Name returns the lock key
	Name() string
}

// LockFactory creates run locks
type LockFactory interface {
	NewRunLock(job string, ttl time.Duration) RunLock
}
