// Package metrics exports BeatPilot counters and gauges to Prometheus.
// A Metrics value satisfies the observer interfaces of the suggest,
// session, protocol and http packages.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "beatpilot"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	messages          *prometheus.CounterVec
	errors            *prometheus.CounterVec
	repairStages      *prometheus.CounterVec
	inferenceDuration prometheus.Histogram
	inferenceFailures prometheus.Counter
	activeSessions    prometheus.Gauge
	openConnections   prometheus.Gauge
}

// New registers every collector on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound realtime messages by type.",
		}, []string{"type"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Error replies by reason.",
		}, []string{"reason"}),
		repairStages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_stage_total",
			Help:      "Repair pipeline stage that produced each suggestion set.",
		}, []string{"stage"}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Duration of model inference calls.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		inferenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_failures_total",
			Help:      "Inference calls that failed and fell back.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Session actors currently held in memory.",
		}),
		openConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_connections",
			Help:      "Open realtime connections.",
		}),
	}

	m.registry.MustRegister(
		m.messages,
		m.errors,
		m.repairStages,
		m.inferenceDuration,
		m.inferenceFailures,
		m.activeSessions,
		m.openConnections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveMessage(kind string) {
	m.messages.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveError(reason string) {
	m.errors.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveRepair(stage string) {
	m.repairStages.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveInference(d time.Duration, err error) {
	m.inferenceDuration.Observe(d.Seconds())
	if err != nil {
		m.inferenceFailures.Inc()
	}
}

func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) ObserveConnection(delta int) {
	m.openConnections.Add(float64(delta))
}
