package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for pacing requests
type Limiter interface {
	// Wait blocks until the next request may start or ctx is cancelled
	Wait(ctx context.Context) error
}

// Throttle spaces successive requests at least delay apart
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a throttle admitting one request per delay.
// A delay of zero or less disables throttling.
func NewThrottle(delay time.Duration) *Throttle {
	if delay <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the throttle admits another request. It returns the
// context's error if ctx is cancelled first.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return ctx.Err()
	}
	return t.limiter.Wait(ctx)
}
