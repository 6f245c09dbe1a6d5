package metrics

import "github.com/prometheus/client_golang/prometheus"

// RetentionMetrics tracks scheduled cleanup.
//
// Metrics:
//   - custodian_retention_runs_total: Runs by result
//   - custodian_retention_run_duration_seconds: Run duration histogram
//   - custodian_retention_deleted_total: Deleted records by class
//   - custodian_audit_entries_total: Deletion audit attempts by result
type RetentionMetrics struct {
	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	deletedTotal      *prometheus.CounterVec
	auditEntriesTotal *prometheus.CounterVec
}

// NewRetentionMetrics creates and registers retention metrics.
func NewRetentionMetrics(registry *prometheus.Registry) *RetentionMetrics {
	rm := &RetentionMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "retention",
				Name:      "runs_total",
				Help:      "Total number of retention runs",
			},
			[]string{"result"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "retention",
				Name:      "run_duration_seconds",
				Help:      "Duration of retention runs in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			},
		),

		deletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "retention",
				Name:      "deleted_total",
				Help:      "Total number of records deleted by retention",
			},
			[]string{"class"},
		),

		auditEntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "audit",
				Name:      "entries_total",
				Help:      "Total number of deletion audit attempts",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		rm.runsTotal,
		rm.runDuration,
		rm.deletedTotal,
		rm.auditEntriesTotal,
	)

	return rm
}
