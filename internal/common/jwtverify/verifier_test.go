package jwtverify

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/community-board/internal/common/clock"
	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	"github.com/AlibekovAA/community-board/internal/common/logger"
)

const testSecret = "test-secret-key-at-least-32-bytes-long"

var issued = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func sign(t *testing.T, secret string, method jwt.SigningMethod, tc TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, tc).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func accessClaims(ttl time.Duration) TokenClaims {
	return TokenClaims{
		Username: "alice",
		Type:     AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "jti-1",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
	}
}

func TestVerify_ValidAccessToken(t *testing.T) {
	v := NewVerifier(testSecret, clock.NewMockClock(issued.Add(time.Hour)))
	token := sign(t, testSecret, jwt.SigningMethodHS256, accessClaims(24*time.Hour))

	claims, err := v.Verify(token, AccessToken)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" || claims.JTI != "jti-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(issued.Add(24 * time.Hour)) {
		t.Errorf("expected exp %v, got %v", issued.Add(24*time.Hour), claims.ExpiresAt)
	}
}

func TestVerify_Rejections(t *testing.T) {
	refresh := accessClaims(7 * 24 * time.Hour)
	refresh.Type = RefreshToken
	refresh.Username = ""

	noSubject := accessClaims(time.Hour)
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", sign(t, testSecret, jwt.SigningMethodHS256, accessClaims(time.Minute)), commonerrors.ErrTokenExpired},
		{"wrong secret", sign(t, "another-secret-key-at-least-32-bytes", jwt.SigningMethodHS256, accessClaims(time.Hour)), commonerrors.ErrTokenInvalid},
		{"wrong algorithm", sign(t, testSecret, jwt.SigningMethodHS512, accessClaims(time.Hour)), commonerrors.ErrTokenInvalid},
		{"refresh as access", sign(t, testSecret, jwt.SigningMethodHS256, refresh), commonerrors.ErrTokenInvalid},
		{"missing subject", sign(t, testSecret, jwt.SigningMethodHS256, noSubject), commonerrors.ErrTokenInvalid},
		{"garbage", "not.a.jwt", commonerrors.ErrTokenInvalid},
	}

	v := NewVerifier(testSecret, clock.NewMockClock(issued.Add(30*time.Minute)))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token, AccessToken)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVerify_TamperedSignatureIsInvalid(t *testing.T) {
	v := NewVerifier(testSecret, clock.NewMockClock(issued))
	token := sign(t, testSecret, jwt.SigningMethodHS256, accessClaims(time.Hour))

	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "AA"
	_, err := v.Verify(strings.Join(parts, "."), AccessToken)
	if !errors.Is(err, commonerrors.ErrTokenInvalid) {
		t.Errorf("expected TOKEN_INVALID, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"BEARER x.y.z": "x.y.z",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := BearerToken(r); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestRequireAuth_DistinctCodes(t *testing.T) {
	mockClock := clock.NewMockClock(issued)
	v := NewVerifier(testSecret, mockClock)
	valid := sign(t, testSecret, jwt.SigningMethodHS256, accessClaims(24*time.Hour))

	var seen Claims
	h := RequireAuth(v, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(header string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	if w := call("Bearer " + valid); w.Code != http.StatusNoContent || seen.UserID != "user-1" {
		t.Fatalf("expected pass-through with claims, got %d %+v", w.Code, seen)
	}

	if w := call(""); !strings.Contains(w.Body.String(), commonerrors.CodeAuthenticationRequired) {
		t.Errorf("missing token: got %d %s", w.Code, w.Body.String())
	}
	if w := call("Bearer junk"); !strings.Contains(w.Body.String(), commonerrors.CodeTokenInvalid) {
		t.Errorf("invalid token: got %d %s", w.Code, w.Body.String())
	}

	mockClock.Advance(24*time.Hour + time.Second)
	if w := call("Bearer " + valid); w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), commonerrors.CodeTokenExpired) {
		t.Errorf("expired token: got %d %s", w.Code, w.Body.String())
	}
}

func TestOptionalAuth_IgnoresBadTokens(t *testing.T) {
	v := NewVerifier(testSecret, clock.NewMockClock(issued))

	var attached bool
	h := OptionalAuth(v, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, attached = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.Header.Set("Authorization", "Bearer junk")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK || attached {
		t.Errorf("expected 200 without identity, got %d attached=%v", w.Code, attached)
	}
}
