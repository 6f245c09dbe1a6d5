// Package server provides the custodian admin HTTP API.
//
// # Routes
//
//	GET  /healthz                         liveness
//	GET  /readyz                          readiness (record store ping)
//	GET  /version                         build information
//	GET  /metrics                         Prometheus metrics
//	GET  /api/v1/backups                  manifests, newest first
//	POST /api/v1/backups                  take a backup now
//	POST /api/v1/backups/{name}/restore   restore a manifest
//	POST /api/v1/retention/run            run retention now
//
// # Authentication
//
// When an admin token is configured, every /api route requires
//
//	Authorization: Bearer <token>
//
// Probes and metrics stay open. The X-Actor header names the person behind a
// request; it is recorded on audit entries and activity events.
//
// # TLS
//
// With server.tls.cert_file set the API is served over HTTPS. The
// certificate pair is checked for changes every reload_interval and swapped
// in place, so renewals take effect without a restart.
//
// # Tracing
//
// When tracing is enabled each /api request gets a server span that joins
// any W3C traceparent sent by the caller. The trace ID is returned in the
// Trace-Id response header.
//
// # Errors
//
// Errors are JSON objects {"error": "..."}. A run that is already in progress
// answers 409, an unknown manifest 404, an invalid manifest name 400 and an
// unreachable record store 503.
package server
