// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status labels used by RecordProviderRequest.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Provider metrics track calls to the upstream market data providers.
var (
	// ProviderRequestsTotal counts provider calls by provider and status.
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of requests sent to data providers",
		},
		[]string{"provider", "status"},
	)

	// ProviderRequestDuration measures provider round trips in seconds.
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Data provider request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)
)

// Outcome metrics track how widget panels settle.
var (
	// OutcomesTotal counts settled outcomes by component (stock, news) and kind.
	// kind is "success" or an error kind such as "rate_limited".
	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_outcomes_total",
			Help: "Total number of settled widget outcomes",
		},
		[]string{"component", "kind"},
	)

	// StaleResponsesTotal counts responses discarded because a newer request superseded them.
	StaleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_stale_responses_total",
			Help: "Total number of provider responses discarded as stale",
		},
		[]string{"component"},
	)
)

// RecordProviderRequest records one provider call.
func RecordProviderRequest(provider, status string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordOutcome records a settled outcome.
func RecordOutcome(component, kind string) {
	OutcomesTotal.WithLabelValues(component, kind).Inc()
}

// RecordStaleDiscard records a response dropped by the generation guard.
func RecordStaleDiscard(component string) {
	StaleResponsesTotal.WithLabelValues(component).Inc()
}
