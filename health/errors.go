package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a check did not finish before the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no checker is registered under a name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrMissingGroups indicates required reference-data groups are absent.
	ErrMissingGroups = errors.New("health: required groups not loaded")

	// ErrStale indicates the last successful load is too old.
	ErrStale = errors.New("health: reference data is stale")
)
