// Package tracing provides OpenTelemetry tracing for custodian.
//
// # Overview
//
// Spans cover the long-running maintenance operations: one span per
// retention run with a child per record class, one per backup and restore,
// and one per admin API request. Spans are exported over OTLP gRPC.
//
// # Trace Context Propagation
//
// The admin server extracts W3C Trace Context headers, so a manual
// trigger issued from a traced client joins the caller's trace:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// # Sampling Strategies
//
//   - always: Sample all traces (the default; runs are infrequent)
//   - never: Sample no traces
//   - ratio: Sample a fraction of traces
//
// All samplers respect the parent span's decision.
//
// # Usage
//
//	tr, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tr.Shutdown(context.Background())
//
//	pruner := retention.NewPruner(s, hook, locker, rc,
//	    retention.WithTracer(tr.Tracer("retention")))
//
// When tracing is disabled Tracer returns a noop tracer.
package tracing
