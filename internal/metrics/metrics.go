package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote metrics
var (
	// VotesCastTotal tracks successfully recorded votes
	VotesCastTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "votes_cast_total",
			Help: "Total votes successfully recorded",
		},
	)

	// VotesRejectedTotal tracks rejected votes by reason (duplicate, not_found, invalid)
	VotesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_rejected_total",
			Help: "Total rejected votes by reason",
		},
		[]string{"reason"},
	)
)

// Sweeper metrics
var (
	// SweepRunsTotal tracks sweep ticks by status (ok, error)
	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Total expiry sweep runs by status",
		},
		[]string{"status"},
	)

	// SweepSessionsDeletedTotal tracks sessions removed by the sweeper
	SweepSessionsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_sessions_deleted_total",
			Help: "Total expired sessions removed by the sweeper",
		},
	)

	// SweepDurationSeconds tracks sweep latency in seconds
	SweepDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Expiry sweep duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// HTTP metrics
var (
	// HTTPErrorsTotal tracks HTTP errors by type
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP errors by error type",
		},
		[]string{"type"},
	)
)

// Circuit breaker metrics
var (
	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Total circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Top-tracks cache metrics
var (
	// TopCacheRequestsTotal tracks top-listing cache lookups by outcome (hit, miss)
	TopCacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "top_cache_requests_total",
			Help: "Top-tracks cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
