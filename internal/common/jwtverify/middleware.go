package jwtverify

import (
	"net/http"
	"strings"

	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	commonhttp "github.com/AlibekovAA/community-board/internal/common/http"
	"github.com/AlibekovAA/community-board/internal/common/logger"
)

// BearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "" when there is none.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(raw[7:])
}

// RequireAuth rejects requests without a valid access token. Missing,
// expired and invalid tokens produce distinct error codes.
func RequireAuth(v *Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "auth_missing_token",
				}).Debug("jwt auth failed: missing bearer token")
				commonhttp.HandleError(w, r, commonerrors.ErrAuthenticationRequired, log)
				return
			}

			claims, err := v.Verify(token, AccessToken)
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "auth_token_rejected",
				}).Warnf("jwt auth failed: %v", err)
				commonhttp.HandleError(w, r, err, log)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches the identity when a valid access token is present
// and lets every request through.
func OptionalAuth(v *Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.Verify(token, AccessToken)
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "auth_optional_token_ignored",
				}).Debugf("ignoring unusable token on public route: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
