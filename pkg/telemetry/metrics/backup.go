package metrics

import "github.com/prometheus/client_golang/prometheus"

// BackupMetrics tracks backups and restores.
//
// Metrics:
//   - custodian_backup_runs_total: Backup runs by result
//   - custodian_backup_run_duration_seconds: Backup duration histogram
//   - custodian_backup_size_bytes: Size of the latest successful backup
//   - custodian_backup_last_success_timestamp_seconds: Completion time of the
//     latest successful backup
//   - custodian_backup_rotated_total: Backup files removed by rotation
//   - custodian_backup_restores_total: Restores by result
type BackupMetrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	sizeBytes     prometheus.Gauge
	lastSuccess   prometheus.Gauge
	rotatedTotal  prometheus.Counter
	restoresTotal *prometheus.CounterVec
}

// NewBackupMetrics creates and registers backup metrics.
func NewBackupMetrics(registry *prometheus.Registry) *BackupMetrics {
	bm := &BackupMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "backup",
				Name:      "runs_total",
				Help:      "Total number of backup runs",
			},
			[]string{"result"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "backup",
				Name:      "run_duration_seconds",
				Help:      "Duration of backup runs in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
		),

		sizeBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "backup",
				Name:      "size_bytes",
				Help:      "Size of the latest successful backup in bytes",
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "backup",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the latest successful backup",
			},
		),

		rotatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "backup",
				Name:      "rotated_total",
				Help:      "Total number of expired backup files removed",
			},
		),

		restoresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "backup",
				Name:      "restores_total",
				Help:      "Total number of restores",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		bm.runsTotal,
		bm.runDuration,
		bm.sizeBytes,
		bm.lastSuccess,
		bm.rotatedTotal,
		bm.restoresTotal,
	)

	return bm
}
