// Package tracing provides OpenTelemetry tracing for inbound HTTP requests and
// outbound provider calls.
//
// The tracer is obtained from the global provider, so spans are no-ops until
// main (or a test) installs a real TracerProvider.
//
//	ctx, span := tracing.StartProviderSpan(ctx, "newsapi", "everything")
//	defer span.End()
package tracing
