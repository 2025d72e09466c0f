package catalog

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces requests evenly; callers reserve a slot then sleep until it.
type RateLimiter struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

func (r *RateLimiter) reserve() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	slot := now
	if r.nextAllowedAt.After(now) {
		slot = r.nextAllowedAt
	}
	r.nextAllowedAt = slot.Add(r.interval)
	return slot
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	sleep := time.Until(r.reserve())
	if sleep <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
