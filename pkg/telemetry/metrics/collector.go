package metrics

import (
	"time"

	"giftpoints/custodian/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every custodian metric.
const Namespace = "custodian"

// Run results used as the "result" label.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Collector owns the custodian metric families and the private registry they
// are exposed from.
//
// All recording methods are safe on a nil *Collector and on a disabled one,
// so components can take an optional collector without guarding each call.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	retention *RetentionMetrics
	backup    *BackupMetrics
	activity  *ActivityMetrics
}

// NewCollector creates and registers all metrics. If registry is nil a new
// private registry is created, with the Go runtime and process collectors.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		enabled := true
		cfg = &config.MetricsConfig{Enabled: &enabled, Path: config.DefaultMetricsPath}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return &Collector{
		config:    cfg,
		registry:  registry,
		retention: NewRetentionMetrics(registry),
		backup:    NewBackupMetrics(registry),
		activity:  NewActivityMetrics(registry),
	}
}

// Registry returns the registry metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) enabled() bool {
	return c != nil && config.Bool(c.config.Enabled)
}

// RecordRetentionRun records the outcome and duration of a retention run.
func (c *Collector) RecordRetentionRun(result string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.retention.runsTotal.WithLabelValues(result).Inc()
	c.retention.runDuration.Observe(duration.Seconds())
}

// RecordRetentionDeleted adds n deleted records of class.
func (c *Collector) RecordRetentionDeleted(class string, n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.retention.deletedTotal.WithLabelValues(class).Add(float64(n))
}

// RecordAuditEntry records one deletion audit attempt.
func (c *Collector) RecordAuditEntry(result string) {
	if !c.enabled() {
		return
	}
	c.retention.auditEntriesTotal.WithLabelValues(result).Inc()
}

// RecordBackupRun records the outcome and duration of a backup run.
func (c *Collector) RecordBackupRun(result string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.backup.runsTotal.WithLabelValues(result).Inc()
	c.backup.runDuration.Observe(duration.Seconds())
}

// RecordBackupSuccess records the size and completion time of the latest
// successful backup.
func (c *Collector) RecordBackupSuccess(sizeBytes int64, at time.Time) {
	if !c.enabled() {
		return
	}
	c.backup.sizeBytes.Set(float64(sizeBytes))
	c.backup.lastSuccess.Set(float64(at.Unix()))
}

// RecordBackupRotated adds n deleted backup files.
func (c *Collector) RecordBackupRotated(n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.backup.rotatedTotal.Add(float64(n))
}

// RecordRestore records the outcome of a restore.
func (c *Collector) RecordRestore(result string) {
	if !c.enabled() {
		return
	}
	c.backup.restoresTotal.WithLabelValues(result).Inc()
}

// RecordActivityEvent records one activity notification outcome.
func (c *Collector) RecordActivityEvent(kind, outcome string) {
	if !c.enabled() {
		return
	}
	c.activity.eventsTotal.WithLabelValues(kind, outcome).Inc()
}
