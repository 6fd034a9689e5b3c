// Package observe provides logging, tracing and metrics for reference-data
// operations.
//
// It only instruments: it performs no lookups itself. The refdata engine, the
// loader and the HTTP API receive a Logger, Metrics or Middleware from here.
package observe
