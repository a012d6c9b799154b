// Package observability bundles the operational surface of the service:
// structured JSON logging over slog, the startup lifecycle state machine,
// liveness/readiness probes, Prometheus metrics, and optional OpenTelemetry
// tracing.
package observability
