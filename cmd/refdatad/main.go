// Command refdatad serves reference data from an in-memory store that is
// loaded from SQLite and refreshed periodically.
//
// Usage:
//
//	refdatad                 serve
//	refdatad import FILE     upsert a JSON dataset into the SQLite source
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/refdataops/auth"
	"github.com/jonwraymond/refdataops/config"
	"github.com/jonwraymond/refdataops/health"
	"github.com/jonwraymond/refdataops/httpapi"
	"github.com/jonwraymond/refdataops/loader"
	"github.com/jonwraymond/refdataops/loader/sqlite"
	"github.com/jonwraymond/refdataops/observe"
	"github.com/jonwraymond/refdataops/refdata"
	"github.com/jonwraymond/refdataops/resilience"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if len(os.Args) > 2 && os.Args[1] == "import" {
		err = runImport(ctx, os.Args[2])
	} else {
		err = run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "refdatad:", err)
		os.Exit(1)
	}
}

func runImport(ctx context.Context, path string) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	// #nosec G304 -- the path is a command-line argument.
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	var ds loader.Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return fmt.Errorf("decode dataset: %w", err)
	}
	if err := ds.Validate(time.Local); err != nil {
		return err
	}

	src, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := src.Put(ctx, &ds); err != nil {
		return err
	}
	fmt.Printf("imported %d rows into %s\n", ds.Len(), cfg.SQLitePath)
	return nil
}

func run(ctx context.Context) (err error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe())
	if err != nil {
		return err
	}
	logger := obs.Logger()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		err = errors.Join(err, obs.Shutdown(shutdownCtx))
	}()

	mw, err := observe.MiddlewareFromObserver(obs, observe.WithExpectedErrors(
		refdata.ErrCodeNotFound,
		refdata.ErrLengthMismatch,
		refdata.ErrInvalidExpiration,
	))
	if err != nil {
		return err
	}

	store := refdata.NewStore()
	engine := refdata.NewEngine(store, refdata.WithLogger(logger), refdata.WithMetrics(mw.Metrics()))

	src, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer src.Close()

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  5,
		ResetTimeout: time.Minute,
		OnStateChange: func(from, to resilience.State) {
			logger.Warn(context.Background(), "source circuit changed state",
				observe.Field{Key: "from", Value: from.String()},
				observe.Field{Key: "to", Value: to.String()})
		},
	})
	exec := resilience.NewExecutor(
		resilience.WithCircuitBreaker(breaker),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts: cfg.RefreshAttempts,
			Jitter:      true,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				logger.Warn(context.Background(), "retrying source fetch",
					observe.Field{Key: "attempt", Value: attempt},
					observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
					observe.Field{Key: "error", Value: err})
			},
		})),
		resilience.WithTimeout(cfg.RefreshTimeout),
	)

	refresher := loader.NewRefresher(store, src,
		loader.WithExecutor(exec),
		loader.WithMiddleware(mw),
		loader.WithLogger(logger),
		loader.WithParallelism(cfg.RefreshParallelism),
	)

	if res, err := refresher.Refresh(ctx, cfg.PreloadTypeCodes...); err != nil {
		logger.Error(ctx, "initial reference data load failed", observe.Field{Key: "error", Value: err})
	} else {
		logger.Info(ctx, "reference data loaded",
			observe.Field{Key: "store_id", Value: store.ID().String()},
			observe.Field{Key: "rows", Value: res.XRefs + res.ListRefs + res.Extended})
	}

	agg := health.NewAggregator(health.AggregatorConfig{Timeout: 5 * time.Second})
	agg.Register("store", health.NewStoreChecker(store, health.StoreCheckerConfig{RequiredGroups: cfg.RequiredGroups}))
	agg.Register("source_circuit", health.NewBreakerChecker("source_circuit", breaker))
	agg.Register("sqlite", health.NewCheckerFunc("sqlite", func(ctx context.Context) health.Result {
		if err := src.Ping(ctx); err != nil {
			return health.Unhealthy("sqlite unreachable", err)
		}
		return health.Healthy("sqlite reachable")
	}))
	agg.Register("refresh", health.NewFreshnessChecker(refresher, cfg.MaxStaleness))

	var authz auth.Authorizer
	if cfg.AuthEnabled {
		authz = auth.NewRoleAuthorizer(nil)
	}
	api := httpapi.New(engine,
		httpapi.WithMiddleware(mw),
		httpapi.WithGuard(auth.NewGuard(cfg.Authenticator(), authz)),
		httpapi.WithRefresher(refresher),
		httpapi.WithRefreshLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:  cfg.RefreshRate,
			Burst: 1,
		})),
		httpapi.WithLogger(logger),
	)

	mux := http.NewServeMux()
	api.Register(mux)
	health.RegisterHandlers(mux, agg)
	if cfg.MetricsExporter == "prometheus" {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "listening", observe.Field{Key: "addr", Value: cfg.HTTPAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.RefreshInterval > 0 {
		g.Go(func() error {
			return refresher.Run(gctx, cfg.RefreshInterval, cfg.PreloadTypeCodes...)
		})
	}

	err = g.Wait()
	logger.Info(context.Background(), "stopped")
	return err
}
