// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Projection metrics
	ProjectionsComputed *prometheus.CounterVec
	InvalidInputs       prometheus.Counter
	ComputeLatency      prometheus.Histogram

	// Export metrics
	ExportsGenerated *prometheus.CounterVec
	ProFormasSaved   *prometheus.CounterVec

	// Preview metrics
	PreviewSessions prometheus.Gauge
	PreviewMessages prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith creates a new Metrics instance registered with reg.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "solar_proforma"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Projection metrics
		ProjectionsComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projection",
			Name:      "computed_total",
			Help:      "Total number of projections computed by caller",
		}, []string{"source"}),
		InvalidInputs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projection",
			Name:      "invalid_inputs_total",
			Help:      "Total number of projection inputs rejected as invalid",
		}),
		ComputeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "projection",
			Name:      "compute_latency_seconds",
			Help:      "Projection compute latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),

		// Export metrics
		ExportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "generated_total",
			Help:      "Total number of exports generated by format",
		}, []string{"format"}),
		ProFormasSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "proformas_saved_total",
			Help:      "Total number of pro-forma saves by outcome",
		}, []string{"outcome"}),

		// Preview metrics
		PreviewSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "preview",
			Name:      "sessions",
			Help:      "Number of open live preview connections",
		}),
		PreviewMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "preview",
			Name:      "messages_total",
			Help:      "Total number of preview messages handled",
		}),

		// HTTP metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordProjection records a successful projection and its latency.
func (m *Metrics) RecordProjection(source string, elapsed time.Duration) {
	m.ProjectionsComputed.WithLabelValues(source).Inc()
	m.ComputeLatency.Observe(elapsed.Seconds())
}

// RecordInvalidInput increments the invalid input counter.
func (m *Metrics) RecordInvalidInput() {
	m.InvalidInputs.Inc()
}

// RecordExport increments the export counter for a format.
func (m *Metrics) RecordExport(format string) {
	m.ExportsGenerated.WithLabelValues(format).Inc()
}

// RecordSave records a pro-forma save outcome: "saved", "existing", "repaired" or "error".
func (m *Metrics) RecordSave(outcome string) {
	m.ProFormasSaved.WithLabelValues(outcome).Inc()
}

// PreviewOpened increments the open preview session gauge.
func (m *Metrics) PreviewOpened() {
	m.PreviewSessions.Inc()
}

// PreviewClosed decrements the open preview session gauge.
func (m *Metrics) PreviewClosed() {
	m.PreviewSessions.Dec()
}

// RecordPreviewMessage increments the preview message counter.
func (m *Metrics) RecordPreviewMessage() {
	m.PreviewMessages.Inc()
}

// RecordRequest records a finished HTTP request.
func (m *Metrics) RecordRequest(route string, status int) {
	m.HTTPRequests.WithLabelValues(route, http.StatusText(status)).Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
