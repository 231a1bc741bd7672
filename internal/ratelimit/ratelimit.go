// Package ratelimit spaces outbound requests by a fixed minimum interval.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum gap between consecutive operations. The first
// call never blocks; later calls sleep off whatever remains of the interval
// since the previous one. Safe for concurrent use: callers serialize on the
// internal mutex, so the gap holds across goroutines too.
type Limiter struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// Every builds a limiter with the given minimum interval. A non-positive
// interval disables pacing.
func Every(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// PerMinute builds a limiter admitting at most rate operations per minute.
func PerMinute(rate float64) *Limiter {
	if rate <= 0 {
		return Every(0)
	}
	return Every(time.Duration(float64(time.Minute) / rate))
}

// Wait blocks until the interval since the previous operation has elapsed,
// or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if !l.last.IsZero() {
		if wait := l.interval - now.Sub(l.last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now = <-timer.C:
			}
		}
	}
	l.last = now
	return nil
}

// Interval reports the configured minimum gap.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
