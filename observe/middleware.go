package observe

import (
	"context"
	"errors"
	"time"
)

// ExecuteFunc is one reference-data operation.
type ExecuteFunc func(ctx context.Context, meta OpMeta) (any, error)

// Middleware wraps operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a function safe for concurrent use.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger

	// expected reports errors that are normal outcomes (a validation miss)
	// and are logged at warn rather than error.
	expected func(error) bool
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

// WithExpectedErrors marks the given errors as expected outcomes.
func WithExpectedErrors(targets ...error) MiddlewareOption {
	return func(m *Middleware) {
		m.expected = func(err error) bool {
			for _, t := range targets {
				if errors.Is(err, t) {
					return true
				}
			}
			return false
		}
	}
}

// NewMiddleware creates a Middleware from its parts.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		tracer:   tracer,
		metrics:  metrics,
		logger:   logger,
		expected: func(error) bool { return false },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MiddlewareFromObserver builds a Middleware from an Observer's providers.
func MiddlewareFromObserver(obs Observer, opts ...MiddlewareOption) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger(), opts...), nil
}

// Metrics returns the recorder used by the middleware.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Wrap instruments fn.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta OpMeta) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordOperation(ctx, meta, duration, err)

		logger := m.logger.WithOp(meta)
		fields := []Field{{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000}}
		switch {
		case err == nil:
			logger.Debug(ctx, "operation completed", fields...)
		case m.expected(err):
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Warn(ctx, "operation rejected", fields...)
		default:
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "operation failed", fields...)
		}

		return result, err
	}
}

// Run wraps and immediately executes fn.
func (m *Middleware) Run(ctx context.Context, meta OpMeta, fn ExecuteFunc) (any, error) {
	return m.Wrap(fn)(ctx, meta)
}
