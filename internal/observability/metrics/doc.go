// Package metrics provides the Prometheus collectors for provider calls and
// panel outcomes.
//
// All collectors are registered with the default registry via promauto and
// exposed through the /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	body, err := client.FetchIntraday(ctx, symbol, "5min")
//	metrics.RecordProviderRequest("alphavantage", statusLabel(err), time.Since(start))
package metrics
