package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures RateLimiter.
type RateLimiterConfig struct {
	// Rate is tokens added per second. Default: 1
	Rate float64

	// Burst is the bucket size. Default: 1
	Burst int

	// Now is the clock. Default: time.Now
	Now func() time.Time
}

// RateLimiter is a token bucket. It never blocks: a call without a token
// fails with ErrRateLimitExceeded.
type RateLimiter struct {
	config RateLimiterConfig

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 1
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimiter{
		config: config,
		tokens: float64(config.Burst),
		last:   config.Now(),
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens < 1 {
		return false
	}
	rl.tokens--
	return true
}

// RetryAfter is the time until the next token.
func (rl *RateLimiter) RetryAfter() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - rl.tokens) / rl.config.Rate * float64(time.Second))
}

// Execute runs op if a token is available.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if !rl.Allow() {
		return ErrRateLimitExceeded
	}
	return op(ctx)
}

func (rl *RateLimiter) refillLocked() {
	now := rl.config.Now()
	if elapsed := now.Sub(rl.last); elapsed > 0 {
		rl.tokens += elapsed.Seconds() * rl.config.Rate
		if capacity := float64(rl.config.Burst); rl.tokens > capacity {
			rl.tokens = capacity
		}
	}
	rl.last = now
}
