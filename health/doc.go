// Package health reports whether a reference-data node can serve lookups.
//
// A Checker reports a Status: Healthy, Degraded or Unhealthy. The package
// ships checkers for the in-memory store (required groups loaded, no stale
// entries), for the background refresher (last successful load within a
// maximum age) and for a source circuit breaker. An Aggregator runs checkers
// in parallel and folds their results into one status, which the HTTP
// handlers expose as liveness, readiness and detailed endpoints:
//
//	agg := health.NewAggregator()
//	agg.Register("store", health.NewStoreChecker(store, health.StoreCheckerConfig{
//	    RequiredGroups: []string{"LISTREF:;:COUNTRY"},
//	}))
//	agg.Register("refresh", health.NewFreshnessChecker(refresher, 15*time.Minute))
//	health.RegisterHandlers(mux, agg)
package health
