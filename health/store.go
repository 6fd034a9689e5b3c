package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/refdataops/refdata"
	"github.com/jonwraymond/refdataops/resilience"
)

// StoreInspector is the part of *refdata.Store a StoreChecker reads.
type StoreInspector interface {
	Stats() refdata.Stats
	HasGroup(name string) bool
}

// StoreCheckerConfig configures StoreChecker.
type StoreCheckerConfig struct {
	// RequiredGroups must be present, e.g. "LISTREF:;:COUNTRY". A missing
	// one makes the store unhealthy.
	RequiredGroups []string

	// MinEntries makes the store unhealthy while it holds fewer entries.
	MinEntries int
}

// StoreChecker reports unhealthy when required data is absent and degraded
// when groups hold expired entries that the next lookup will evict.
type StoreChecker struct {
	store  StoreInspector
	config StoreCheckerConfig
}

// NewStoreChecker creates a StoreChecker.
func NewStoreChecker(store StoreInspector, config StoreCheckerConfig) *StoreChecker {
	return &StoreChecker{store: store, config: config}
}

func (c *StoreChecker) Name() string { return "store" }

func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	st := c.store.Stats()
	details := map[string]any{
		"store_id":       st.StoreID.String(),
		"groups":         st.Groups,
		"entries":        st.Entries,
		"empty_groups":   st.EmptyGroups,
		"expired_groups": len(st.ExpiredGroups),
	}

	var missing []string
	for _, name := range c.config.RequiredGroups {
		if !c.store.HasGroup(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		details["missing_groups"] = missing
		return Unhealthy("missing groups: "+strings.Join(missing, ","), ErrMissingGroups).WithDetails(details)
	}

	if st.Entries < c.config.MinEntries {
		return Unhealthy(
			fmt.Sprintf("%d entries loaded, want at least %d", st.Entries, c.config.MinEntries),
			ErrCheckFailed,
		).WithDetails(details)
	}

	if len(st.ExpiredGroups) > 0 {
		details["expired"] = st.ExpiredGroups
		return Degraded(fmt.Sprintf("%d groups hold expired entries", len(st.ExpiredGroups))).WithDetails(details)
	}

	return Healthy(fmt.Sprintf("%d groups, %d entries", st.Groups, st.Entries)).WithDetails(details)
}

// LoadStatus is implemented by background loaders.
type LoadStatus interface {
	// LastSuccess is the completion time of the last good load, zero if none.
	LastSuccess() time.Time
	// LastError is the error of the most recent load, nil if it succeeded.
	LastError() error
}

// FreshnessChecker reports unhealthy before the first load and when the
// last good load is older than MaxAge. A failed latest load with data still
// fresh is degraded.
type FreshnessChecker struct {
	status LoadStatus
	maxAge time.Duration
	now    func() time.Time
}

// NewFreshnessChecker creates a FreshnessChecker. A non-positive maxAge
// disables the age limit.
func NewFreshnessChecker(status LoadStatus, maxAge time.Duration) *FreshnessChecker {
	return &FreshnessChecker{status: status, maxAge: maxAge, now: time.Now}
}

func (c *FreshnessChecker) Name() string { return "refresh" }

func (c *FreshnessChecker) Check(ctx context.Context) Result {
	last := c.status.LastSuccess()
	lastErr := c.status.LastError()

	if last.IsZero() {
		if lastErr != nil {
			return Unhealthy("no successful load", lastErr)
		}
		return Unhealthy("no successful load", ErrStale)
	}

	age := c.now().Sub(last)
	details := map[string]any{
		"last_success": last.UTC().Format(time.RFC3339),
		"age":          age.Round(time.Second).String(),
	}
	if lastErr != nil {
		details["last_error"] = lastErr.Error()
	}

	if c.maxAge > 0 && age > c.maxAge {
		return Unhealthy(fmt.Sprintf("last load %s ago", age.Round(time.Second)), ErrStale).WithDetails(details)
	}
	if lastErr != nil {
		return Degraded("latest load failed; serving previous data").WithDetails(details)
	}
	return Healthy("reference data fresh").WithDetails(details)
}

// BreakerChecker reports a source circuit breaker: open is unhealthy and
// half-open degraded.
type BreakerChecker struct {
	name string
	cb   *resilience.CircuitBreaker
}

// NewBreakerChecker creates a BreakerChecker.
func NewBreakerChecker(name string, cb *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, cb: cb}
}

func (c *BreakerChecker) Name() string { return c.name }

func (c *BreakerChecker) Check(ctx context.Context) Result {
	m := c.cb.Metrics()
	details := map[string]any{
		"state":    m.State.String(),
		"failures": m.Failures,
		"rejected": m.Rejected,
	}
	switch m.State {
	case resilience.StateOpen:
		return Unhealthy("circuit open", resilience.ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit half-open").WithDetails(details)
	default:
		return Healthy("circuit closed").WithDetails(details)
	}
}
