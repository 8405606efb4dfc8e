package ratelimit

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	commonhttp "github.com/AlibekovAA/community-board/internal/common/http"
	"github.com/AlibekovAA/community-board/internal/common/httpmetrics"
	"github.com/AlibekovAA/community-board/internal/common/logger"
	"github.com/AlibekovAA/community-board/internal/observability/metrics"
)

// Middleware keys requests by client IP. A failing backend lets the request
// through; availability of the auth routes wins over throttling.
func Middleware(limiter Limiter, limiterType, backend string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterType + ":" + commonhttp.GetClientIP(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				metrics.RateLimitBackendErrors.WithLabelValues(backend).Inc()
				log.WithFields(r.Context(), logger.Fields{
					"limiter": limiterType,
					"action":  "rate_limit_backend_error",
				}).Warnf("rate limiter unavailable: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				metrics.RateLimitBlocked.WithLabelValues(httpmetrics.NormalizePath(r.URL.Path), limiterType).Inc()
				commonhttp.HandleError(w, r, commonerrors.ErrRateLimited, log)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PathRule applies Limiter to requests whose path is exactly Path.
type PathRule struct {
	Path    string
	Name    string
	Limiter Limiter
}

// PathMiddleware routes each request to the rule for its path, if any.
func PathMiddleware(rules []PathRule, backend string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := make(map[string]http.Handler, len(rules))
		for _, rule := range rules {
			limited[rule.Path] = Middleware(rule.Limiter, rule.Name, backend, log)(next)
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h, ok := limited[r.URL.Path]; ok {
				h.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
