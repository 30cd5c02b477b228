package bulk

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay spaces items to stay under provider rate limits.
const DefaultDelay = 800 * time.Millisecond

// Pacer is consulted after every item that reached the report source.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay sleeps a constant duration.
type FixedDelay struct {
	Delay time.Duration
}

func (p FixedDelay) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TokenBucket allows rps items per second with the given burst.
type TokenBucket struct {
	limiter *rate.Limiter
}

func NewTokenBucket(rps float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (p *TokenBucket) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NoDelay never waits.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error { return nil }

// NewPacer picks a token bucket when rps is positive, else a fixed delay.
func NewPacer(delay time.Duration, rps float64, burst int) Pacer {
	if rps > 0 {
		return NewTokenBucket(rps, burst)
	}
	return FixedDelay{Delay: delay}
}
