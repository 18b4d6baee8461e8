// Package metrics holds the Prometheus collectors for the aggregator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts outbound calls by provider purpose and outcome
	// ("success", "not_found", "empty", "failure", "rejected").
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total outbound requests to metadata and availability providers",
		},
		[]string{"upstream", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of outbound provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// PosterResolutions counts which fallback tier served a poster.
	PosterResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_resolutions_total",
			Help: "Poster resolutions by mode and resulting tier",
		},
		[]string{"mode", "tier"},
	)

	// AvailabilityDegraded counts combined lookups served with an empty offer list
	// because the availability provider had nothing or failed.
	AvailabilityDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_degraded_total",
			Help: "Combined lookups that fell back to an empty offer list",
		},
		[]string{"reason"},
	)

	PosterUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_uploads_total",
			Help: "Poster uploads by outcome",
		},
		[]string{"outcome"},
	)
)
