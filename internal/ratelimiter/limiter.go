package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket throttling outbound email sends so a burst of
// fan-out jobs cannot hammer the SMTP server. Burst equals the per-second
// rate, so no "saved up" capacity accumulates above the configured maximum.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter granting ratePerSec sends per second.
func New(ratePerSec int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Wait blocks until a token is granted. Called by the email worker
// immediately before each transport send. Returns a non-nil error only if
// ctx is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
