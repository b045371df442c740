// Package metrics records import pass statistics as Prometheus metrics.
//
// epgmerge runs as a batch job, so metrics are exported through the node
// exporter textfile collector rather than served over HTTP.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry sets a custom Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns the pass metrics.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	processed    *prometheus.CounterVec
	inserted     *prometheus.CounterVec
	changed      *prometheus.CounterVec
	conflicts    *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	lastPass     *prometheus.GaugeVec
	lastStatus   *prometheus.GaugeVec
}

// New creates a Manager registered on its own registry.
func New(opts ...Option) *Manager {
	m := &Manager{namespace: "epgmerge"}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	source := []string{"source"}
	m.processed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "events_processed_total",
		Help: "Feed events applied to a target channel schedule.",
	}, source)
	m.inserted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "events_inserted_total",
		Help: "Feed events appended to a schedule as new entries.",
	}, source)
	m.changed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "events_changed_total",
		Help: "Schedule events changed by a merge, by kind of change.",
	}, []string{"source", "change"})
	m.conflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "slot_conflicts_total",
		Help: "Feed events dropped because they did not fit into the schedule.",
	}, source)
	m.skipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: "events_skipped_total",
		Help: "Feed events skipped, by reason.",
	}, []string{"source", "reason"})
	m.passDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Name: "pass_duration_seconds",
		Help:    "Wall time of import passes.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	}, source)
	m.lastPass = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "last_pass_timestamp_seconds",
		Help: "Unix time the last pass finished.",
	}, source)
	m.lastStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "last_pass_status",
		Help: "Terminal status of the last pass (1 for the reported status).",
	}, []string{"source", "status"})

	m.registry.MustRegister(
		m.processed, m.inserted, m.changed, m.conflicts, m.skipped,
		m.passDuration, m.lastPass, m.lastStatus,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

func (m *Manager) RecordProcessed(source string) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(source).Inc()
}

func (m *Manager) RecordInserted(source string) {
	if m == nil {
		return
	}
	m.inserted.WithLabelValues(source).Inc()
}

// RecordChange counts a merge result; "nothing" is not counted.
func (m *Manager) RecordChange(source, change string) {
	if m == nil || change == "" || change == "nothing" {
		return
	}
	m.changed.WithLabelValues(source, change).Inc()
}

func (m *Manager) RecordConflict(source string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(source).Inc()
}

func (m *Manager) RecordSkipped(source, reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(source, reason).Inc()
}

// ObservePass records the duration and terminal status of a pass.
func (m *Manager) ObservePass(source, status string, elapsed time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.passDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.lastPass.WithLabelValues(source).Set(float64(finished.Unix()))
	m.lastStatus.DeletePartialMatch(prometheus.Labels{"source": source})
	m.lastStatus.WithLabelValues(source, status).Set(1)
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Manager) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
