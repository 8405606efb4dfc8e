package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/community-board/internal/common/logger"
)

type ReadinessCheck func(ctx context.Context) error

func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadinessHandler answers 200 when every check passes and otherwise the
// first failure as an error envelope.
func ReadinessHandler(log *logger.Logger, timeout time.Duration, checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		status := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.WithFields(ctx, logger.Fields{
					"check":  name,
					"action": "readiness_failed",
				}).Warnf("readiness check failed: %v", err)
				HandleError(w, r, err, log)
				return
			}
			status[name] = "ok"
		}

		WriteJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": status})
	}
}

type statusBanner struct {
	Message   string `json:"message"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func StatusHandler(message string, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, statusBanner{
			Message:   message,
			Status:    "running",
			Timestamp: now().UTC().Format(time.RFC3339),
		})
	}
}
