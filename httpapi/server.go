// Package httpapi exposes the reference-data engine over HTTP.
//
// Lookups run as the lookup action, loaders as load, removals as clear and
// reports as diagnose; see auth.RoleAuthorizer. Every operation goes
// through observe.Middleware. A failed code validation is answered with
// status 400 and the plain-text @@@REFDATAERROR:...@@@ string.
package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/refdataops/auth"
	"github.com/jonwraymond/refdataops/loader"
	"github.com/jonwraymond/refdataops/observe"
	"github.com/jonwraymond/refdataops/refdata"
	"github.com/jonwraymond/refdataops/resilience"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

// Server holds the HTTP handlers.
type Server struct {
	engine    *refdata.Engine
	store     *refdata.Store
	refresher *loader.Refresher
	limiter   *resilience.RateLimiter
	mw        *observe.Middleware
	guard     *auth.Guard
	logger    observe.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRefresher enables POST /v1/refresh.
func WithRefresher(r *loader.Refresher) Option {
	return func(s *Server) { s.refresher = r }
}

// WithRefreshLimiter rate limits POST /v1/refresh.
func WithRefreshLimiter(rl *resilience.RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithMiddleware sets the telemetry middleware. Default: no-op telemetry.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(s *Server) {
		if mw != nil {
			s.mw = mw
		}
	}
}

// WithGuard sets request authentication. Default: auth disabled.
func WithGuard(g *auth.Guard) Option {
	return func(s *Server) {
		if g != nil {
			s.guard = g
		}
	}
}

// WithLogger sets the access logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server over engine.
func New(engine *refdata.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		store:  engine.Store(),
		mw: observe.NewMiddleware(
			observe.NewTracer(tracenoop.NewTracerProvider().Tracer("noop")),
			observe.NopMetrics(),
			observe.NopLogger(),
		),
		guard:  auth.NewGuard(nil, nil),
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds the /v1 routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		action  string
		handler http.HandlerFunc
	}{
		{"GET /v1/typecodes", auth.ActionLookup, s.findTypeCodes},
		{"GET /v1/domain-code", auth.ActionLookup, s.domainCode},
		{"GET /v1/rl-code", auth.ActionLookup, s.rlCode},
		{"GET /v1/validate", auth.ActionLookup, s.validateCode},
		{"GET /v1/entry", auth.ActionLookup, s.findEntry},
		{"GET /v1/extended/{typecode}", auth.ActionLookup, s.extendedEntry},
		{"GET /v1/domains/{domain}/{typecode}", auth.ActionLookup, s.validateDomain},

		{"POST /v1/xref", auth.ActionLoad, s.loadXRefs},
		{"POST /v1/listref", auth.ActionLoad, s.loadListRefs},
		{"PUT /v1/extended/{typecode}", auth.ActionLoad, s.loadExtended},
		{"PUT /v1/empty", auth.ActionLoad, s.setEmpty},
		{"POST /v1/refresh", auth.ActionLoad, s.refresh},

		{"DELETE /v1/groups", auth.ActionClear, s.clearGroups},
		{"DELETE /v1/entry", auth.ActionClear, s.removeEntry},

		{"GET /v1/diagnostics/groups", auth.ActionDiagnose, s.diagGroups},
		{"GET /v1/diagnostics/sizes", auth.ActionDiagnose, s.diagSizes},
		{"GET /v1/diagnostics/details", auth.ActionDiagnose, s.diagDetails},
		{"GET /v1/diagnostics/keys", auth.ActionDiagnose, s.diagKeys},
		{"GET /v1/diagnostics/stats", auth.ActionDiagnose, s.diagStats},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, s.guard.Require(rt.action, rt.handler))
	}
}

// Handler returns a mux serving the /v1 routes with request IDs and access
// logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return s.Wrap(mux)
}

// Wrap reuses an incoming X-Request-ID or assigns a UUID, echoes it, and
// logs one line per request.
func (s *Server) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "http request",
			observe.Field{Key: "request_id", Value: id},
			observe.Field{Key: "method", Value: r.Method},
			observe.Field{Key: "path", Value: r.URL.Path},
			observe.Field{Key: "status", Value: rec.status},
			observe.Field{Key: "duration_ms", Value: float64(time.Since(start).Microseconds()) / 1000},
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
