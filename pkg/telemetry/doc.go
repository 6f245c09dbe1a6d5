// Package telemetry groups custodian's observability packages.
//
// # Components
//
//   - logging: slog setup with webhook and token redaction, plus run
//     correlation (run ID, trigger, actor) carried in the context
//   - metrics: Prometheus collectors for retention, backup and activity
//     delivery, exposed from a private registry
//   - tracing: OpenTelemetry spans for retention runs, backups, restores
//     and admin API requests
//   - health: liveness and readiness checks for the admin server
//
// # Usage
//
//	logging.Setup(logging.Config{Level: "info", Format: "json", Redact: true})
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	http.Handle("/metrics", collector.Handler())
//
//	tr, _ := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tr.Shutdown(context.Background())
//
// # Redaction
//
// Webhook URLs embed a secret token. With redaction on, log attributes
// holding a webhook URL or a bearer token are masked before they reach
// the handler:
//
//	https://discord.com/api/webhooks/123/abcdef → https://discord.com/api/webhooks/***
package telemetry
