// Package metrics exposes custodian's Prometheus metrics.
//
// A Collector registers every metric family on a private registry and offers
// one Record method per observation:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRetentionDeleted("order", 12)
//	router.Handle("/metrics", collector.Handler())
//
// The activity logger accepts the collector directly as its Metrics sink.
package metrics
