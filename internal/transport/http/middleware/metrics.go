package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/baechuer/eprocure-portal/internal/authz"
)

const metricsNamespace = "portal"

// latency buckets sized for page shells and small JSON bodies; uploads land in the tail
var latencyBuckets = []float64{0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3, 10}

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by surface, route pattern and status",
		},
		[]string{"surface", "method", "route", "status"},
	)

	requestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by surface and route pattern",
			Buckets:   latencyBuckets,
		},
		[]string{"surface", "route"},
	)

	requestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		},
		[]string{"surface"},
	)

	authzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "authz_decisions_total",
			Help:      "Edge authorization decisions by route class and outcome",
		},
		[]string{"class", "outcome"},
	)

	layoutDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "layout_guard_denials_total",
			Help:      "Requests stopped by the layout guard after passing the edge",
		},
		[]string{"class", "outcome"},
	)
)

func observeDecision(class authz.RouteClass, outcome authz.Outcome) {
	authzDecisionsTotal.WithLabelValues(string(class), string(outcome)).Inc()
}

// ObserveLayoutDenial is called by the layout guard for every non-allow outcome.
func ObserveLayoutDenial(class authz.RouteClass, outcome authz.Outcome) {
	layoutDenialsTotal.WithLabelValues(string(class), string(outcome)).Inc()
}

// surface groups traffic the way the router splits it.
func surface(p string) string {
	switch {
	case strings.HasPrefix(p, "/api/"):
		return "api"
	case p == "/healthz" || p == "/readyz" || p == "/metrics":
		return "ops"
	default:
		return "page"
	}
}

// Metrics records request count, latency and concurrency. Unmatched routes
// share one label so probes cannot blow up cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sf := surface(r.URL.Path)
		inFlight := requestsInFlight.WithLabelValues(sf)
		inFlight.Inc()
		defer inFlight.Dec()

		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		requestsTotal.WithLabelValues(sf, r.Method, route, strconv.Itoa(status)).Inc()
		requestLatency.WithLabelValues(sf, route).Observe(time.Since(start).Seconds())
	})
}
