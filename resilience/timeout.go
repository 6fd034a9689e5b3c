package resilience

import (
	"context"
	"errors"
	"time"
)

// Timeout bounds one call.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a Timeout. A non-positive d means 30s.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = 30 * time.Second
	}
	return &Timeout{d: d}
}

// Execute runs op with a derived deadline. If the deadline passes first,
// ErrTimeout is returned without waiting for op; op sees its context
// cancelled and must return on its own.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- op(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// Duration returns the configured limit.
func (t *Timeout) Duration() time.Duration {
	return t.d
}
