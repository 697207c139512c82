// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the e-democracy backend.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets suited for interactive API
// latencies, ranging from 1ms to 5s.
var APIBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var (
	// RequestsTotal counts all HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edemocracy_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edemocracy_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthFailuresTotal counts rejected requests at the auth gate and the
	// action authorizer, by failure reason.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edemocracy_auth_failures_total",
			Help: "Authentication and authorization failures",
		},
		[]string{"reason"},
	)

	// SessionsIssuedTotal counts session tokens issued at login.
	SessionsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "edemocracy_sessions_issued_total",
			Help: "Session tokens issued",
		},
	)

	// VoteTokensIssuedTotal counts single-purpose vote tokens minted by the feed.
	VoteTokensIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "edemocracy_vote_tokens_issued_total",
			Help: "Vote authorization tokens minted",
		},
	)

	// VotesRecordedTotal counts accepted votes by kind (poll or item).
	VotesRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edemocracy_votes_recorded_total",
			Help: "Votes recorded",
		},
		[]string{"kind"},
	)

	// InFlightRequests tracks the number of requests currently being served.
	InFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "edemocracy_inflight_requests",
			Help: "Requests currently in flight",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthFailuresTotal,
		SessionsIssuedTotal,
		VoteTokensIssuedTotal,
		VotesRecordedTotal,
		InFlightRequests,
	)
}
