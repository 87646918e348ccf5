package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nhadat_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nhadat_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ListingTransitions counts lifecycle transitions by target status or event (created, deleted).
	ListingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nhadat_listing_transitions_total",
		Help: "Listing lifecycle transitions.",
	}, []string{"event"})

	StorageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nhadat_storage_failures_total",
		Help: "Asset storage operations that failed.",
	}, []string{"op"})
)

// Transition records one listing lifecycle event.
func Transition(event string) {
	ListingTransitions.WithLabelValues(event).Inc()
}
