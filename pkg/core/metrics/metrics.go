// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "labqc"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	BulkJobs      *prometheus.CounterVec
	BulkBatches   *prometheus.CounterVec
	ItemDuration  prometheus.Histogram
	ArchiveErrors *prometheus.CounterVec
	Analyses      *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		BulkJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "jobs_total",
			Help:      "Bulk jobs reaching a terminal status.",
		}, []string{"status"}),
		BulkBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "batches_total",
			Help:      "Bulk batches by outcome (finished, cancelled).",
		}, []string{"outcome"}),
		ItemDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "item_duration_seconds",
			Help:      "Wall time to process one identifier, pacing excluded.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ArchiveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_errors_total",
			Help:      "Archive operations that failed and were swallowed.",
		}, []string{"op"}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Model invocations by provider and result.",
		}, []string{"provider", "result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BulkJobs, m.BulkBatches, m.ItemDuration, m.ArchiveErrors, m.Analyses,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) JobFinished(status string) {
	if m != nil {
		m.BulkJobs.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) BatchFinished(outcome string) {
	if m != nil {
		m.BulkBatches.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveItem(seconds float64) {
	if m != nil {
		m.ItemDuration.Observe(seconds)
	}
}

func (m *Metrics) ArchiveError(op string) {
	if m != nil {
		m.ArchiveErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) Analysis(provider, result string) {
	if m != nil {
		m.Analyses.WithLabelValues(provider, result).Inc()
	}
}
