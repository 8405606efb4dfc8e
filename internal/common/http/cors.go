package http

import (
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"

	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	"github.com/AlibekovAA/community-board/internal/common/logger"
	"github.com/AlibekovAA/community-board/internal/observability/metrics"
)

type CORSOptions struct {
	AllowedOrigins        []string
	AllowedOriginPatterns []*regexp.Regexp
	// Strict rejects origins outside the allow-list. When false, unknown
	// origins are reflected and logged.
	Strict bool
	MaxAge int
}

var (
	corsAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS, PATCH"
	corsAllowedHeaders = "Content-Type, Authorization, X-Trace-ID"
	corsExposedHeaders = "Authorization, X-Trace-ID"
)

func (o CORSOptions) allowed(origin string) bool {
	if slices.Contains(o.AllowedOrigins, origin) {
		return true
	}
	for _, re := range o.AllowedOriginPatterns {
		if re.MatchString(origin) {
			return true
		}
	}
	return false
}

func CORSMiddleware(opts CORSOptions, log *logger.Logger) func(http.Handler) http.Handler {
	if opts.MaxAge <= 0 {
		opts.MaxAge = 86400
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimRight(r.Header.Get("Origin"), "/")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")

			if !opts.allowed(origin) {
				metrics.CORSRejected.Inc()
				if opts.Strict {
					log.WithFields(r.Context(), logger.Fields{
						"origin": origin,
						"action": "cors_rejected",
					}).Warn("cors: origin not allowed")
					HandleError(w, r, commonerrors.ErrOriginNotAllowed.WithDetails(map[string]any{"origin": origin}), log)
					return
				}
				log.WithFields(r.Context(), logger.Fields{
					"origin": origin,
					"action": "cors_reflected_unlisted_origin",
				}).Warn("cors: reflecting origin outside the allow-list (CORS_STRICT=false)")
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", corsExposedHeaders)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
				h.Set("Access-Control-Max-Age", strconv.Itoa(opts.MaxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
