package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total number of auth requests",
		},
		[]string{"method", "path"},
	)

	AuthRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_requests_in_flight",
			Help: "Number of auth requests currently being processed",
		},
	)

	AuthRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_request_duration_seconds",
			Help:    "Duration of auth requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AccessTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	RefreshTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_issued_total",
			Help: "Total number of refresh tokens issued",
		},
	)

	RefreshTokensUsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_used_total",
			Help: "Total number of successful refresh exchanges",
		},
	)

	RefreshFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_failures_total",
			Help: "Total number of rejected refresh exchanges by reason",
		},
		[]string{"reason"},
	)

	JWTValidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jwt_validations_total",
			Help: "Total number of JWT validations",
		},
	)

	JWTValidationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jwt_validations_failed_total",
			Help: "Total number of failed JWT validations by outcome",
		},
		[]string{"outcome"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	RegistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of accounts created",
		},
	)
)
