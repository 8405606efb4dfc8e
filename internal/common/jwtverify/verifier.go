package jwtverify

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/community-board/internal/common/clock"
	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	"github.com/AlibekovAA/community-board/internal/observability/metrics"
)

var (
	errWrongTokenType = errors.New("unexpected token type")
	errMissingSubject = errors.New("missing sub claim")
	errMissingUser    = errors.New("missing usr claim")
)

type Verifier struct {
	secret []byte
	clock  clock.Clock
	parser *jwt.Parser
}

func NewVerifier(secret string, clk clock.Clock) *Verifier {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Verifier{
		secret: []byte(secret),
		clock:  clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(clk.Now),
		),
	}
}

// Verify checks signature, expiry and token type. It returns ErrTokenExpired
// for a well-signed token past its exp and ErrTokenInvalid for anything else.
func (v *Verifier) Verify(tokenString string, want TokenType) (Claims, error) {
	metrics.JWTValidationsTotal.Inc()

	var tc TokenClaims
	_, err := v.parser.ParseWithClaims(tokenString, &tc, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			metrics.JWTValidationsFailed.WithLabelValues("expired").Inc()
			return Claims{}, commonerrors.ErrTokenExpired.WithCause(err)
		}
		metrics.JWTValidationsFailed.WithLabelValues("invalid").Inc()
		return Claims{}, commonerrors.ErrTokenInvalid.WithCause(err)
	}

	if err := validateClaims(tc, want); err != nil {
		metrics.JWTValidationsFailed.WithLabelValues("invalid").Inc()
		return Claims{}, commonerrors.ErrTokenInvalid.WithCause(err)
	}

	claims := Claims{
		UserID:   tc.Subject,
		Username: tc.Username,
		JTI:      tc.ID,
		Type:     tc.Type,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}
	return claims, nil
}

func validateClaims(tc TokenClaims, want TokenType) error {
	if tc.Type != want {
		return fmt.Errorf("%w: got %q, want %q", errWrongTokenType, tc.Type, want)
	}
	if tc.Subject == "" {
		return errMissingSubject
	}
	if want == AccessToken && tc.Username == "" {
		return errMissingUser
	}
	return nil
}
