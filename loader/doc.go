// Package loader fills a refdata.Store from an upstream Source.
//
// A Source returns a Dataset of cross-reference, list-reference and extended
// rows. A Refresher fetches through a resilience.Executor, replaces the
// affected typecodes in the store and records when it last succeeded so
// health checks can report staleness.
package loader
