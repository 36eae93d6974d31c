// Package observability groups the logging, metrics and tracing infrastructure
// shared by the quote and news components and the HTTP layer.
//
// Subpackages:
//   - logging: slog construction and context propagation
//   - metrics: Prometheus collectors for provider calls and panel outcomes
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
