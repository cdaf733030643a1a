package warehouse

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter caps the rate of profiling queries against the account
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a token bucket limiter allowing rps queries per
// second with a burst of twice the rate
func NewRateLimiter(rps int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), rps*2),
	}
}

// Wait blocks until the rate limiter allows an action
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow checks if an action is allowed without blocking
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
