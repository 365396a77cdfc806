// Package metrics exposes Prometheus instrumentation for the API and the
// detection pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// APIMetrics holds counters and histograms for HTTP and detection flows.
type APIMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	entitiesTotal   *prometheus.CounterVec
	redactionsTotal *prometheus.CounterVec
}

// New registers the metric vectors with reg (DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *APIMetrics {
	m := &APIMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "veil",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status code",
		}, []string{"route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "veil",
			Subsystem: "api",
			Name:      "request_latency_seconds",
			Help:      "Latency of HTTP request handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		entitiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "veil",
			Subsystem: "detection",
			Name:      "entities_total",
			Help:      "Total detected PII entities by type",
		}, []string{"type"}),
		redactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "veil",
			Subsystem: "detection",
			Name:      "redactions_total",
			Help:      "Total redacted PII spans by type",
		}, []string{"type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.entitiesTotal, m.redactionsTotal)
	return m
}

// ObserveRequest records one handled request. Nil-safe so handlers can run
// without metrics in tests.
func (m *APIMetrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, status).Inc()
	m.requestLatency.WithLabelValues(route).Observe(seconds)
}

// ObserveEntity counts one detected entity.
func (m *APIMetrics) ObserveEntity(entityType string) {
	if m == nil {
		return
	}
	m.entitiesTotal.WithLabelValues(entityType).Inc()
}

// ObserveRedaction counts one redacted span.
func (m *APIMetrics) ObserveRedaction(entityType string) {
	if m == nil {
		return
	}
	m.redactionsTotal.WithLabelValues(entityType).Inc()
}
