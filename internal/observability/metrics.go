// Package observability holds the Prometheus metrics for analyses and the
// HTTP API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Registry owns these metrics; the /metrics endpoint serves it.
	Registry *prometheus.Registry

	analyses      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	transactions  prometheus.Counter
	subscriptions prometheus.Counter
	monthlyCost   prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

// NewMetrics creates a private registry and registers every metric in it,
// so repeated calls in tests do not collide.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recurring_analyses_total",
				Help: "Analyses run, by outcome.",
			},
			[]string{"status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recurring_operation_duration_seconds",
				Help:    "Duration of engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		transactions: factory.NewCounter(prometheus.CounterOpts{
			Name: "recurring_transactions_processed_total",
			Help: "Transactions fed to the engine.",
		}),
		subscriptions: factory.NewCounter(prometheus.CounterOpts{
			Name: "recurring_subscriptions_detected_total",
			Help: "Recurring charges detected across all analyses.",
		}),
		monthlyCost: factory.NewGauge(prometheus.GaugeOpts{
			Name: "recurring_last_monthly_cost_dollars",
			Help: "Total monthly cost found by the most recent analysis.",
		}),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recurring_http_requests_total",
				Help: "HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recurring_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// RecordDuration records how long an operation took.
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordAnalysis records a completed analysis.
func (m *Metrics) RecordAnalysis(transactions, subscriptions int, monthlyCost float64) {
	m.analyses.WithLabelValues("success").Inc()
	m.transactions.Add(float64(transactions))
	m.subscriptions.Add(float64(subscriptions))
	m.monthlyCost.Set(monthlyCost)
}

// IncrAnalysisError counts an analysis that failed.
func (m *Metrics) IncrAnalysisError() {
	m.analyses.WithLabelValues("error").Inc()
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}
