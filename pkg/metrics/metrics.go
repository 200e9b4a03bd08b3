package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veriauth_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// Signups counts account registrations by result (success|failure).
	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veriauth_signups_total",
			Help: "Total number of signup requests",
		},
		[]string{"result"},
	)

	// PendingActionsIssued counts pending-action tokens issued per flow.
	PendingActionsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veriauth_pending_actions_issued_total",
			Help: "Pending-action tokens issued",
		},
		[]string{"flow"},
	)

	// PendingActionsConsumed counts pending-action confirmations per flow and result.
	PendingActionsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veriauth_pending_actions_consumed_total",
			Help: "Pending-action tokens consumed",
		},
		[]string{"flow", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "veriauth_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
