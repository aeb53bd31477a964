package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Authorization outcomes.
const (
	OutcomeAllow           = "allow"
	OutcomeDeny            = "deny"
	OutcomeUnauthenticated = "unauthenticated"
)

// Cache lookup results.
const (
	LookupHit  = "hit"
	LookupMiss = "miss"
)

// Metrics holds the collectors of one process. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AuthorizationDecisions *prometheus.CounterVec
	PermissionCacheLookups *prometheus.CounterVec
	RoleInvalidations      *prometheus.CounterVec
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hms_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hms_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthorizationDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hms_authorization_decisions_total",
				Help: "Authorization decisions by outcome and required permission",
			},
			[]string{"outcome", "permission"},
		),
		PermissionCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hms_permission_cache_lookups_total",
				Help: "Permission cache lookups by result",
			},
			[]string{"result"},
		),
		RoleInvalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hms_role_invalidations_total",
				Help: "Permission cache invalidations by origin",
			},
			[]string{"origin"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthorizationDecisions,
		m.PermissionCacheLookups,
		m.RoleInvalidations,
	)

	return m
}

func (m *Metrics) ObserveDecision(outcome, permission string) {
	if m == nil {
		return
	}
	m.AuthorizationDecisions.WithLabelValues(outcome, permission).Inc()
}

func (m *Metrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.PermissionCacheLookups.WithLabelValues(result).Inc()
}

// ObserveInvalidation counts an invalidation; origin is "local" or "remote".
func (m *Metrics) ObserveInvalidation(origin string) {
	if m == nil {
		return
	}
	m.RoleInvalidations.WithLabelValues(origin).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records count and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sw, r)

		// pattern is only known after routing; raw paths would explode label cardinality
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
