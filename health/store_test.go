package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/refdataops/refdata"
	"github.com/jonwraymond/refdataops/resilience"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore() *refdata.Store {
	return refdata.NewStore(refdata.WithClock(func() time.Time { return testNow }))
}

func TestStoreChecker(t *testing.T) {
	countries := refdata.ListRefGroup("COUNTRY").String()

	tests := []struct {
		name    string
		setup   func(s *refdata.Store)
		config  StoreCheckerConfig
		want    Status
		wantErr error
	}{
		{
			name:  "loaded",
			setup: func(s *refdata.Store) { s.SetEntry(countries, "US", "United States", time.Time{}) },
			want:  StatusHealthy,
		},
		{
			name:    "required group missing",
			config:  StoreCheckerConfig{RequiredGroups: []string{countries}},
			want:    StatusUnhealthy,
			wantErr: ErrMissingGroups,
		},
		{
			name:    "too few entries",
			setup:   func(s *refdata.Store) { s.SetEntry(countries, "US", "United States", time.Time{}) },
			config:  StoreCheckerConfig{MinEntries: 2},
			want:    StatusUnhealthy,
			wantErr: ErrCheckFailed,
		},
		{
			name:  "expired entries",
			setup: func(s *refdata.Store) { s.SetEntry(countries, "US", "United States", testNow.Add(-time.Minute)) },
			want:  StatusDegraded,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore()
			if tc.setup != nil {
				tc.setup(s)
			}
			r := NewStoreChecker(s, tc.config).Check(context.Background())
			if r.Status != tc.want {
				t.Errorf("Status = %v, want %v (%s)", r.Status, tc.want, r.Message)
			}
			if tc.wantErr != nil && !errors.Is(r.Error, tc.wantErr) {
				t.Errorf("Error = %v, want %v", r.Error, tc.wantErr)
			}
		})
	}
}

type loadStatus struct {
	last time.Time
	err  error
}

func (l loadStatus) LastSuccess() time.Time { return l.last }
func (l loadStatus) LastError() error       { return l.err }

func TestFreshnessChecker(t *testing.T) {
	errLoad := errors.New("db down")
	tests := []struct {
		name   string
		status loadStatus
		want   Status
	}{
		{name: "never loaded", status: loadStatus{}, want: StatusUnhealthy},
		{name: "never loaded with error", status: loadStatus{err: errLoad}, want: StatusUnhealthy},
		{name: "fresh", status: loadStatus{last: testNow.Add(-time.Minute)}, want: StatusHealthy},
		{name: "fresh but last failed", status: loadStatus{last: testNow.Add(-time.Minute), err: errLoad}, want: StatusDegraded},
		{name: "stale", status: loadStatus{last: testNow.Add(-time.Hour)}, want: StatusUnhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewFreshnessChecker(tc.status, 10*time.Minute)
			c.now = func() time.Time { return testNow }
			if r := c.Check(context.Background()); r.Status != tc.want {
				t.Errorf("Status = %v, want %v (%s)", r.Status, tc.want, r.Message)
			}
		})
	}
}

func TestBreakerChecker(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	c := NewBreakerChecker("source", cb)

	if r := c.Check(context.Background()); r.Status != StatusHealthy {
		t.Fatalf("closed breaker: %v", r.Status)
	}
	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("down") })
	if r := c.Check(context.Background()); r.Status != StatusUnhealthy {
		t.Errorf("open breaker: %v", r.Status)
	}
	if c.Name() != "source" {
		t.Errorf("Name() = %q", c.Name())
	}
}
