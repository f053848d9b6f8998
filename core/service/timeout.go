package service

import (
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds enqueue and reply waits when a Spec sets none.
const DefaultTimeout = 60 * time.Second

// timeoutOverride holds the ambient override in nanoseconds, 0 = inactive.
var timeoutOverride atomic.Int64

// OverrideTimeout installs a process-wide timeout that takes precedence over
// every per-service Timeout while active. It exists for test control; the
// returned func restores the previous override.
//
//	restore := service.OverrideTimeout(50 * time.Millisecond)
//	defer restore()
func OverrideTimeout(d time.Duration) (restore func()) {
	prev := timeoutOverride.Swap(int64(d))
	return func() { timeoutOverride.Store(prev) }
}

// effectiveTimeout resolves the wait bound for one call: ambient override
// first, then the configured value, then DefaultTimeout.
func effectiveTimeout(configured time.Duration) time.Duration {
	if o := timeoutOverride.Load(); o > 0 {
		return time.Duration(o)
	}
	if configured > 0 {
		return configured
	}
	return DefaultTimeout
}
