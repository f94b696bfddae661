// Package metrics exposes Prometheus metrics for HTTP traffic, loader
// outcomes and query cache lookups.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the server.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LoaderOutcomesTotal *prometheus.CounterVec
	CacheLookupsTotal   *prometheus.CounterVec
	ChangesPublished    *prometheus.CounterVec
}

// New creates and registers all collectors on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retrospecs_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "retrospecs_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LoaderOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retrospecs_loader_outcomes_total",
				Help: "Loader results by route and outcome kind",
			},
			[]string{"route", "outcome"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retrospecs_query_cache_lookups_total",
				Help: "Query cache lookups by result",
			},
			[]string{"result"},
		),
		ChangesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retrospecs_changes_published_total",
				Help: "Realtime changes published by table",
			},
			[]string{"table"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoaderOutcomesTotal,
		m.CacheLookupsTotal,
		m.ChangesPublished,
	)
	return m
}

// ObserveLookup counts a query cache lookup.
func (m *Metrics) ObserveLookup(result string) {
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveOutcome counts a loader result. outcome is a kind name or "error".
func (m *Metrics) ObserveOutcome(route, outcome string) {
	m.LoaderOutcomesTotal.WithLabelValues(route, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
