package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	"github.com/AlibekovAA/community-board/internal/common/logger"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func TestHandleError_DomainErrorEnvelope(t *testing.T) {
	h := TraceIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleError(w, r, commonerrors.ErrRefreshFailed.WithDetails(map[string]any{"reason": "expired"}), logger.Discard())
	}))

	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	r.Header.Set(traceIDHeader, "client-trace-0001")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "client-trace-0001", w.Header().Get(traceIDHeader))

	env := decodeEnvelope(t, w)
	require.Equal(t, commonerrors.CodeRefreshFailed, env.Code)
	require.Equal(t, "expired", env.Details["reason"])
	require.Equal(t, "client-trace-0001", env.TraceID)
}

func TestHandleError_HidesInternalErrors(t *testing.T) {
	secret := errors.New("pq: password authentication failed for user board")

	for _, expose := range []bool{false, true} {
		w := httptest.NewRecorder()
		NewErrorHandler(logger.Discard(), expose).HandleError(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil), secret)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w)
		require.Equal(t, CodeInternal, env.Code)
		require.Equal(t, expose, strings.Contains(env.Message, "password authentication"))
	}
}

func TestHandleError_InternalDomainErrorCauseOnlyWhenExposed(t *testing.T) {
	dbErr := commonerrors.NewDomainError("DB_ERROR", commonerrors.CategoryInternal, http.StatusInternalServerError, "account store error").
		WithCause(errors.New("relation \"accounts\" does not exist"))

	for _, expose := range []bool{false, true} {
		w := httptest.NewRecorder()
		NewErrorHandler(logger.Discard(), expose).HandleError(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil), dbErr)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w)
		require.Equal(t, "DB_ERROR", env.Code)
		require.Equal(t, expose, strings.Contains(env.Message, "does not exist"))
	}
}

func TestTraceIDMiddleware_ReplacesMalformedIDs(t *testing.T) {
	var seen string
	h := TraceIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(traceIDHeader, "bad id\nwith newline")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.NotEqual(t, "bad id\nwith newline", seen)
	require.Regexp(t, traceIDPattern, seen)
	require.Equal(t, seen, w.Header().Get(traceIDHeader))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, CodeInternal, decodeEnvelope(t, w).Code)
}

func TestMaxRequestSizeMiddleware(t *testing.T) {
	h := MaxRequestSizeMiddleware(16)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Equal(t, CodeRequestTooLarge, decodeEnvelope(t, w).Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestDecodeJSON(t *testing.T) {
	var v map[string]string

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, DecodeJSON(r, &v))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	require.ErrorIs(t, DecodeJSON(r, &v), ErrInvalidJSON)
}

func TestGetClientIP_WithoutMiddlewareUsesSocket(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.Header.Set("X-Real-IP", "198.51.100.2")
	require.Equal(t, "10.0.0.1", GetClientIP(r))
}

func TestClientIPMiddleware(t *testing.T) {
	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	}

	tests := []struct {
		name       string
		trusted    []netip.Prefix
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{"no proxies configured ignores headers", nil, "10.0.0.1:5555", "203.0.113.7", "198.51.100.2", "10.0.0.1"},
		{"untrusted peer ignores headers", trusted, "192.0.2.9:5555", "203.0.113.7", "198.51.100.2", "192.0.2.9"},
		{"trusted peer uses forwarded client", trusted, "10.0.0.1:5555", "203.0.113.7", "", "203.0.113.7"},
		{"spoofed leftmost hop is skipped", trusted, "10.0.0.1:5555", "1.2.3.4, 203.0.113.7, 10.0.0.2", "", "203.0.113.7"},
		{"trusted peer uses real ip without forwarded for", trusted, "[::1]:5555", "", "198.51.100.2", "198.51.100.2"},
		{"garbage hop stops the walk", trusted, "10.0.0.1:5555", "203.0.113.7, bogus", "", "10.0.0.1"},
		{"all hops trusted falls back to leftmost", trusted, "10.0.0.1:5555", "10.0.0.3, 10.0.0.2", "", "10.0.0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := ClientIPMiddleware(tt.trusted)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = GetClientIP(r)
			}))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			h.ServeHTTP(httptest.NewRecorder(), r)

			require.Equal(t, tt.want, got)
		})
	}
}
