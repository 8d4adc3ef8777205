// Package metrics provides Prometheus metrics for the lead intake service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// sinkLatencyBuckets covers webhook round trips from a few ms to tens of seconds.
var sinkLatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000} //nolint:gochecknoglobals // bucket layout

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Intake
	leadsReceived *prometheus.CounterVec
	leadsRejected *prometheus.CounterVec

	// Sinks
	sinkDispatches *prometheus.CounterVec
	sinkLatency    *prometheus.HistogramVec

	// Relay
	relayOutcomes *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "leadintake",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.leadsReceived = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "leads_received_total",
		Help:        "Lead submissions that passed validation, by route",
		ConstLabels: m.constLabels,
	}, []string{"route"})

	m.leadsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "leads_rejected_total",
		Help:        "Lead submissions rejected before dispatch, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.sinkDispatches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sink_dispatches_total",
		Help:        "Sink delivery attempts by sink and outcome",
		ConstLabels: m.constLabels,
	}, []string{"sink", "outcome"})

	m.sinkLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sink_latency_milliseconds",
		Help:        "Sink delivery latency in milliseconds",
		Buckets:     sinkLatencyBuckets,
		ConstLabels: m.constLabels,
	}, []string{"sink"})

	m.relayOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "relay_outcomes_total",
		Help:        "Relay submissions by outcome (ok, forward_failed, store_failed)",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Error responses by endpoint",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorsByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_type_total",
		Help:        "Error responses by type and severity",
		ConstLabels: m.constLabels,
	}, []string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_usage_bytes",
		Help:        "Current heap allocation in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutine_count",
		Help:        "Current number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "gc_pause_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

// RecordLeadReceived counts a validated submission on route.
func (m *Manager) RecordLeadReceived(route string) {
	m.leadsReceived.WithLabelValues(route).Inc()
}

// RecordLeadRejected counts a submission rejected for reason.
func (m *Manager) RecordLeadRejected(reason string) {
	m.leadsRejected.WithLabelValues(reason).Inc()
}

// RecordSinkDispatch counts one delivery attempt and observes its latency.
func (m *Manager) RecordSinkDispatch(sink string, ok bool, latencyMs float64) {
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeFailed
	}
	m.sinkDispatches.WithLabelValues(sink, outcome).Inc()
	m.sinkLatency.WithLabelValues(sink).Observe(latencyMs)
}

// RecordRelayOutcome counts one relay submission.
func (m *Manager) RecordRelayOutcome(outcome string) {
	m.relayOutcomes.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest counts one HTTP request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts an error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string) {
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystem refreshes the runtime gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int, avgGCPauseMs float64) {
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if avgGCPauseMs > 0 {
		m.systemGCPauseTime.Observe(avgGCPauseMs)
	}
}

// Global helpers delegate to the process-wide manager.

// RecordLeadReceived counts a validated submission on route.
func RecordLeadReceived(route string) { globalManager.RecordLeadReceived(route) }

// RecordLeadRejected counts a submission rejected for reason.
func RecordLeadRejected(reason string) { globalManager.RecordLeadRejected(reason) }

// RecordSinkDispatch counts one delivery attempt and observes its latency.
func RecordSinkDispatch(sink string, ok bool, latencyMs float64) {
	globalManager.RecordSinkDispatch(sink, ok, latencyMs)
}

// RecordRelayOutcome counts one relay submission.
func RecordRelayOutcome(outcome string) { globalManager.RecordRelayOutcome(outcome) }

// RecordHTTPRequest counts one HTTP request and observes its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.RecordHTTPError(endpoint, method, errorType, severity)
}

// UpdateSystem refreshes the runtime gauges.
func UpdateSystem(memBytes uint64, goroutines int, avgGCPauseMs float64) {
	globalManager.UpdateSystem(memBytes, goroutines, avgGCPauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
