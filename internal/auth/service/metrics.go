package service

import (
	"github.com/AlibekovAA/community-board/internal/observability/metrics"
)

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func incrementRefreshTokensIssued() {
	metrics.RefreshTokensIssued.Inc()
}

func incrementRefreshTokensUsed() {
	metrics.RefreshTokensUsed.Inc()
}

func incrementRefreshFailure(reason string) {
	metrics.RefreshFailures.WithLabelValues(reason).Inc()
}

func incrementLoginAttempt(result string) {
	metrics.LoginAttempts.WithLabelValues(result).Inc()
}

func incrementRegistrations() {
	metrics.RegistrationsTotal.Inc()
}
