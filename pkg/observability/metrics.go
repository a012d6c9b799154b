package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Access control metrics
	AuthzDecisionsTotal *prometheus.CounterVec
	LoginAttemptsTotal  *prometheus.CounterVec
	TokenFailuresTotal  *prometheus.CounterVec

	// Quota metrics
	QuotaDenialsTotal *prometheus.CounterVec

	// Audit queue metrics
	AuditEventsEnqueued prometheus.Counter
	AuditEventsWritten  prometheus.Counter
	AuditEventsDropped  prometheus.Counter
	AuditQueueDepth     prometheus.Gauge

	// Rate limit metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Business metrics
	TenantsTotal prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskdeck_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_authz_decisions_total",
				Help: "Authorization policy decisions by outcome",
			},
			[]string{"action", "decision"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		TokenFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_token_failures_total",
				Help: "Credential verification failures by reason",
			},
			[]string{"reason"},
		),
		QuotaDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_quota_denials_total",
				Help: "Resource creations denied by tenant quota",
			},
			[]string{"resource"},
		),
		AuditEventsEnqueued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskdeck_audit_events_enqueued_total",
				Help: "Audit events accepted onto the queue",
			},
		),
		AuditEventsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskdeck_audit_events_written_total",
				Help: "Audit events persisted by the background writer",
			},
		),
		AuditEventsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskdeck_audit_events_dropped_total",
				Help: "Audit events dropped due to a full queue",
			},
		),
		AuditQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskdeck_audit_queue_depth",
				Help: "Current depth of the audit event queue",
			},
		),
		RateLimitHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"scope"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskdeck_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskdeck_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		TenantsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskdeck_tenants_total",
				Help: "Total number of tenants",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
		m.LoginAttemptsTotal,
		m.TokenFailuresTotal,
		m.QuotaDenialsTotal,
		m.AuditEventsEnqueued,
		m.AuditEventsWritten,
		m.AuditEventsDropped,
		m.AuditQueueDepth,
		m.RateLimitHitsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.TenantsTotal,
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

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// The route template should come from mux so per-id paths do not explode
// label cardinality; falls back to the raw path.
func HTTPMetricsMiddleware(metrics *Metrics, routeTemplate func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if routeTemplate != nil {
				if tmpl := routeTemplate(r); tmpl != "" {
					path = tmpl
				}
			}
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// MetricsHandler serves the registry in Prometheus exposition format.
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
