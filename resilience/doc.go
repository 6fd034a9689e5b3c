// Package resilience guards calls to reference-data sources.
//
// A refresh pulls a full dataset from a database or another upstream. Those
// calls can fail transiently, hang, or fail repeatedly while the upstream is
// down. The package provides the guards used around them:
//
//   - Retry re-runs a failed fetch with backoff. Errors wrapped with
//     Permanent are returned at once.
//   - CircuitBreaker stops calling a source after repeated failures and
//     probes it again after a cool-down.
//   - Timeout bounds a single attempt.
//   - RateLimiter bounds how often callers may trigger a refresh.
//
// Executor composes them:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 4})),
//	    resilience.WithTimeout(10*time.Second),
//	)
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    ds, err = src.Load(ctx)
//	    return err
//	})
package resilience
