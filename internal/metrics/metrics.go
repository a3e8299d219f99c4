// Package metrics exposes the outcome of a run as Prometheus metrics.
//
// peptrack is a short-lived process, usually run from cron, so metrics are
// written in the text exposition format for node_exporter's textfile
// collector instead of being served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"peptrack/internal/status"
)

const namespace = "peptrack"

// Run holds the gauges for a single run.
type Run struct {
	registry *prometheus.Registry

	tracked    prometheus.Gauge
	byStatus   *prometheus.GaugeVec
	changes    prometheus.Gauge
	lastRun    prometheus.Gauge
	lastChange prometheus.Gauge
}

// NewRun creates a fresh registry with all gauges registered.
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_documents",
			Help:      "Number of documents in the latest catalog snapshot.",
		}),
		byStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents_by_status",
			Help:      "Number of documents per lifecycle status.",
		}, []string{"status"}),
		changes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status_changes",
			Help:      "Status changes detected by the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
		lastChange: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "baseline_timestamp_seconds",
			Help:      "Capture time of the persisted snapshot after the run.",
		}),
	}
	r.registry.MustRegister(r.tracked, r.byStatus, r.changes, r.lastRun, r.lastChange)
	return r
}

// Observe records the outcome of a run.
func (r *Run) Observe(counts map[status.Status]int, changes int, ranAt, baseline time.Time) {
	total := 0
	for _, st := range status.All() {
		n := counts[st]
		total += n
		r.byStatus.WithLabelValues(st.String()).Set(float64(n))
	}
	r.tracked.Set(float64(total))
	r.changes.Set(float64(changes))
	r.lastRun.Set(float64(ranAt.Unix()))
	r.lastChange.Set(float64(baseline.Unix()))
}

// Gatherer exposes the registry.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile writes the metrics to path atomically.
func (r *Run) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
