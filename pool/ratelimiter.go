package pool

import (
	"context"
	"sync"
	"time"
)

/*
RateLimiter is a token bucket. Each submission consumes a token and tokens
are replenished at a fixed rate, so a burst of up to maxTokens submissions
passes immediately and anything beyond that is paced.
*/
type RateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	mu         sync.Mutex
}

/*
NewRateLimiter creates a rate limiter with a full bucket.

Example:

	limiter := NewRateLimiter(100, 10*time.Millisecond) // bursts of 100, then 100 ops/second
*/
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	if refillRate <= 0 {
		refillRate = time.Millisecond
	}
	now := time.Now()
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: now,
	}
}

// Limit consumes a token if one is available. It returns true when the
// caller must be limited.
func (rl *RateLimiter) Limit() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens > 0 {
		rl.tokens--
		return false
	}
	return true
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for rl.Limit() {
		timer := time.NewTimer(rl.refillRate)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// refill assumes the caller holds the mutex.
func (rl *RateLimiter) refill() {
	elapsed := time.Since(rl.lastRefill)
	tokensToAdd := int(elapsed / rl.refillRate)

	if tokensToAdd > 0 {
		rl.tokens = min(rl.maxTokens, rl.tokens+tokensToAdd)
		// Only move lastRefill forward by whole periods.
		rl.lastRefill = rl.lastRefill.Add(time.Duration(tokensToAdd) * rl.refillRate)
	}
}
