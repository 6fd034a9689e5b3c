package loader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/refdataops/observe"
	"github.com/jonwraymond/refdataops/refdata"
	"github.com/jonwraymond/refdataops/resilience"
)

// Result describes one completed refresh.
type Result struct {
	// TypeCodes are the typecodes refreshed; nil for a full reload.
	TypeCodes []string `json:"typecodes,omitempty"`

	XRefs    int `json:"xrefs"`
	ListRefs int `json:"listrefs"`
	Extended int `json:"extended"`

	// Empty lists requested typecodes marked known-empty.
	Empty []string `json:"empty,omitempty"`

	Duration time.Duration `json:"duration"`

	// Shared is true when the result came from a concurrent identical refresh.
	Shared bool `json:"shared,omitempty"`
}

// Refresher reloads a Store from a Source.
//
// Contract:
//   - Concurrency: safe for concurrent use. Identical concurrent refreshes
//     share one fetch.
//   - Errors: a failed fetch or an invalid dataset leaves the store as it was.
//   - Readers may briefly miss a refreshed typecode between clear and load.
type Refresher struct {
	store  *refdata.Store
	source Source
	exec   *resilience.Executor
	mw     *observe.Middleware
	logger observe.Logger

	parallelism int
	group       singleflight.Group

	mu          sync.RWMutex
	lastSuccess time.Time
	lastErr     error
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithExecutor guards every fetch with exec.
func WithExecutor(exec *resilience.Executor) Option {
	return func(r *Refresher) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithMiddleware instruments refreshes.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(r *Refresher) { r.mw = mw }
}

// WithLogger sets the logger for the background loop.
func WithLogger(l observe.Logger) Option {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithParallelism bounds RefreshEach. Default: 4
func WithParallelism(n int) Option {
	return func(r *Refresher) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// NewRefresher creates a Refresher.
func NewRefresher(store *refdata.Store, source Source, opts ...Option) *Refresher {
	r := &Refresher{
		store:       store,
		source:      source,
		exec:        resilience.NewExecutor(),
		logger:      observe.NopLogger(),
		parallelism: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LastSuccess is when the last refresh completed without error.
func (r *Refresher) LastSuccess() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSuccess
}

// LastError is the error of the most recent refresh, nil after a success.
func (r *Refresher) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

func (r *Refresher) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastErr = err
	if err == nil {
		r.lastSuccess = time.Now()
	}
}

// Refresh replaces the given typecodes with fresh data from the source.
// With no typecodes the whole store is replaced.
//
// Requested typecodes that come back without list-reference rows are
// marked known-empty under LISTREF.
func (r *Refresher) Refresh(ctx context.Context, typecodes ...string) (Result, error) {
	typecodes = normalize(typecodes)
	key := strings.Join(typecodes, "\x00")

	v, err, shared := r.group.Do(key, func() (any, error) {
		meta := observe.OpMeta{Operation: "refresh", TypeCode: strings.Join(typecodes, ",")}
		if r.mw == nil {
			return r.refresh(ctx, typecodes)
		}
		return r.mw.Run(ctx, meta, func(ctx context.Context, _ observe.OpMeta) (any, error) {
			return r.refresh(ctx, typecodes)
		})
	})
	if err != nil {
		return Result{}, err
	}
	res := v.(Result)
	res.Shared = shared
	return res, nil
}

func (r *Refresher) refresh(ctx context.Context, typecodes []string) (Result, error) {
	start := time.Now()

	// An attempt abandoned by the timeout may still finish while a retry
	// runs, or after Execute returns. Only the latest attempt publishes.
	var (
		attempts atomic.Int32
		mu       sync.Mutex
		fetched  *Dataset
	)
	err := r.exec.Execute(ctx, func(ctx context.Context) error {
		n := attempts.Add(1)
		got, err := r.source.Fetch(ctx, typecodes)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if n == attempts.Load() {
			fetched = got
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("fetch from %s: %w", r.source.Name(), err)
		r.record(err)
		return Result{}, err
	}

	mu.Lock()
	ds := fetched
	mu.Unlock()
	if ds == nil {
		ds = &Dataset{}
	}
	ds = ds.Filter(typecodes)
	if err := ds.Validate(r.store.Location()); err != nil {
		err = fmt.Errorf("dataset from %s: %w", r.source.Name(), err)
		r.record(err)
		return Result{}, err
	}

	if len(typecodes) == 0 {
		r.store.Clear()
	} else {
		r.store.ClearTypeCodes(typecodes...)
	}
	if err := ds.Apply(r.store); err != nil {
		r.record(err)
		return Result{}, err
	}

	res := Result{
		TypeCodes: typecodes,
		XRefs:     len(ds.XRefs),
		ListRefs:  len(ds.ListRefs),
		Extended:  len(ds.Extended),
	}
	if len(typecodes) > 0 {
		loaded := ds.listRefTypeCodes()
		for _, tc := range typecodes {
			if !loaded[tc] {
				res.Empty = append(res.Empty, tc)
			}
		}
		r.store.SetEmpty(refdata.PrefixListRef, res.Empty...)
	}
	res.Duration = time.Since(start)

	r.record(nil)
	return res, nil
}

// RefreshEach refreshes every typecode on its own, at most parallelism at
// a time. A failure does not stop the others; all failures are joined.
func (r *Refresher) RefreshEach(ctx context.Context, typecodes ...string) ([]Result, error) {
	typecodes = normalize(typecodes)
	results := make([]Result, len(typecodes))
	errs := make([]error, len(typecodes))

	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for i, tc := range typecodes {
		g.Go(func() error {
			res, err := r.Refresh(ctx, tc)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", tc, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	ok := results[:0]
	for i, res := range results {
		if errs[i] == nil {
			ok = append(ok, res)
		}
	}
	return ok, errors.Join(errs...)
}

// Run refreshes typecodes every interval until ctx is done. Failures are
// logged and retried on the next tick.
func (r *Refresher) Run(ctx context.Context, interval time.Duration, typecodes ...string) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			res, err := r.Refresh(ctx, typecodes...)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Error(ctx, "reference data refresh failed",
					observe.Field{Key: "source", Value: r.source.Name()},
					observe.Field{Key: "error", Value: err})
				continue
			}
			r.logger.Info(ctx, "reference data refreshed",
				observe.Field{Key: "source", Value: r.source.Name()},
				observe.Field{Key: "rows", Value: res.XRefs + res.ListRefs + res.Extended},
				observe.Field{Key: "duration_ms", Value: res.Duration.Milliseconds()})
		}
	}
}

// normalize sorts and de-duplicates typecodes, dropping empty ones.
func normalize(typecodes []string) []string {
	out := make([]string, 0, len(typecodes))
	for _, tc := range typecodes {
		if tc = strings.TrimSpace(tc); tc != "" {
			out = append(out, tc)
		}
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return slices.Compact(out)
}
