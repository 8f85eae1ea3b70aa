package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Document store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal          *prometheus.CounterVec
	CacheMissesTotal        *prometheus.CounterVec
	CacheInvalidationsTotal *prometheus.CounterVec

	// Domain metrics
	RuleEvaluationsTotal *prometheus.CounterVec
	SuggestionsTotal     prometheus.Counter
	SuggestionCandidates prometheus.Histogram
	ScopeSwitchesTotal   prometheus.Counter
	DesignationsTotal    *prometheus.CounterVec

	// Business gauges, refreshed by the stats scheduler
	RefereesActive *prometheus.GaugeVec
	RulesEnabled   *prometheus.GaugeVec
	MatchesPending *prometheus.GaugeVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designaciones_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "designaciones_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designaciones_store_operations_total",
				Help: "Total number of document store operations",
			},
			[]string{"collection", "operation", "status"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "designaciones_store_operation_duration_seconds",
				Help:    "Document store operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"collection", "operation"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designaciones_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"layer"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designaciones_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"layer"},
		),
		CacheInvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designaciones_cache_invalidations_total",
				Help: "Total number of cache keys removed by prefix invalidation",
			},
			[]string{"layer"},
		),
		RuleEvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designaciones_rule_evaluations_total",
				Help: "Referee rule evaluations by outcome",
			},
			[]string{"outcome"},
		),
		SuggestionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "designaciones_suggestions_total",
				Help: "Total number of suggestion requests served",
			},
		),
		SuggestionCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "designaciones_suggestion_candidates",
				Help:    "Number of candidates returned per suggestion request",
				Buckets: prometheus.LinearBuckets(0, 5, 10),
			},
		),
		ScopeSwitchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "designaciones_scope_switches_total",
				Help: "Total number of active delegate switches",
			},
		),
		DesignationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designaciones_designations_total",
				Help: "Designation writes by operation",
			},
			[]string{"operation"},
		),
		RefereesActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "designaciones_referees_active",
				Help: "Active referees per delegate",
			},
			[]string{"delegate"},
		),
		RulesEnabled: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "designaciones_rules_enabled",
				Help: "Enabled internal rules per delegate and type",
			},
			[]string{"delegate", "type"},
		),
		MatchesPending: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "designaciones_matches_pending",
				Help: "Matches without a designated referee per delegate",
			},
			[]string{"delegate"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheInvalidationsTotal,
		m.RuleEvaluationsTotal,
		m.SuggestionsTotal,
		m.SuggestionCandidates,
		m.ScopeSwitchesTotal,
		m.DesignationsTotal,
		m.RefereesActive,
		m.RulesEnabled,
		m.MatchesPending,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments requests. Install it with Router.Use so the
// route template is available as the label instead of the raw path.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := routeTemplate(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// routeTemplate is the matched mux path template, or "unmatched"
func routeTemplate(r *http.Request) string {
	if cr := mux.CurrentRoute(r); cr != nil {
		if tpl, err := cr.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
