// Package metrics counts generation work and exports it in the Prometheus
// text format, for node_exporter's textfile collector on batch hosts.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the generation counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	FilesWritten  prometheus.Counter
	ValuesApplied prometheus.Counter
	Warnings      *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	LastSuccess   prometheus.Gauge
}

// New registers the generation metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtsweep",
			Name:      "input_files_written_total",
			Help:      "Input files written, one per run and stage.",
		}),
		ValuesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtsweep",
			Name:      "values_applied_total",
			Help:      "Sweep values written into input files.",
		}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtsweep",
			Name:      "template_warnings_total",
			Help:      "Template lines or regions skipped while parsing, by block.",
		}, []string{"block"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rtsweep",
			Name:      "run_write_seconds",
			Help:      "Time to write one run directory.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rtsweep",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful generate.",
		}),
	}
	m.registry.MustRegister(m.FilesWritten, m.ValuesApplied, m.Warnings, m.RunDuration, m.LastSuccess)
	return m
}

// ObserveRun records one written run directory.
func (m *Metrics) ObserveRun(files, values int, took time.Duration) {
	m.FilesWritten.Add(float64(files))
	m.ValuesApplied.Add(float64(values))
	m.RunDuration.Observe(took.Seconds())
}

// Succeeded stamps the last success time.
func (m *Metrics) Succeeded(at time.Time) {
	m.LastSuccess.Set(float64(at.Unix()))
}

// Registry exposes the registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics atomically to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
