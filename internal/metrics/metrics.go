// Package metrics holds the Prometheus collectors shared by the transports
// and the matchmaking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests"},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"},
	)
	GRPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "grpc_requests_total", Help: "Count of gRPC unary calls"},
		[]string{"method", "code"},
	)

	// LikesTotal counts like calls by outcome: new, repeat.
	LikesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchmaking",
			Name:      "likes_total",
			Help:      "Like operations by outcome",
		}, []string{"outcome"},
	)
	// MatchesCreatedTotal counts match rows actually inserted.
	MatchesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "matchmaking",
		Name:      "matches_created_total",
		Help:      "Match records created",
	})
	// DiscoveryCandidates observes feed sizes.
	DiscoveryCandidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "matchmaking",
		Name:      "discovery_candidates",
		Help:      "Number of candidates returned by the discovery feed",
		Buckets:   []float64{0, 1, 5, 10, 15, 20},
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		GRPCRequestsTotal,
		LikesTotal,
		MatchesCreatedTotal,
		DiscoveryCandidates,
	)
}
