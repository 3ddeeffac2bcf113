package fetch

import (
	"context"
	"sync"
	"time"
)

// rateLimiter spaces requests at least one interval apart. Each Wait reserves
// the next free slot, so callers are released in arrival order.
type rateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// newRateLimiter returns nil for a non-positive rate, which disables limiting.
func newRateLimiter(perSecond float64) *rateLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &rateLimiter{interval: time.Duration(float64(time.Second) / perSecond)}
}

// Wait blocks until the caller's slot arrives or ctx is done.
func (rl *rateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	if rl == nil {
		return 0, nil
	}
	rl.mu.Lock()
	now := time.Now()
	if rl.next.Before(now) {
		rl.next = now
	}
	slot := rl.next
	rl.next = slot.Add(rl.interval)
	rl.mu.Unlock()

	delay := slot.Sub(now)
	if delay <= 0 {
		return 0, nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return time.Since(now), ctx.Err()
	case <-timer.C:
		return delay, nil
	}
}
