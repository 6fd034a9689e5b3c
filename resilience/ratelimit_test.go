package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	clock := newManualClock()
	rl := NewRateLimiter(RateLimiterConfig{Rate: 2, Burst: 2, Now: clock.Now})

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("burst tokens should be available")
	}
	if rl.Allow() {
		t.Fatal("third call should be limited")
	}
	if got := rl.RetryAfter(); got != 500*time.Millisecond {
		t.Errorf("RetryAfter() = %v, want 500ms", got)
	}

	clock.Advance(500 * time.Millisecond)
	if !rl.Allow() {
		t.Error("token should refill after 500ms at 2/s")
	}

	clock.Advance(time.Hour)
	if !rl.Allow() || !rl.Allow() || rl.Allow() {
		t.Error("refill must cap at burst")
	}
}

func TestRateLimiter_Execute(t *testing.T) {
	clock := newManualClock()
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, Now: clock.Now})
	ctx := context.Background()

	if err := rl.Execute(ctx, succeeding); err != nil {
		t.Fatalf("first call: %v", err)
	}

	called := false
	err := rl.Execute(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("error = %v, want ErrRateLimitExceeded", err)
	}
	if called {
		t.Error("op ran without a token")
	}
}
