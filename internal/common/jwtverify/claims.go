package jwtverify

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// TokenClaims is the signed payload of both token kinds. Refresh tokens
// leave Username empty.
type TokenClaims struct {
	Username string    `json:"usr,omitempty"`
	Type     TokenType `json:"typ"`
	jwt.RegisteredClaims
}

type Claims struct {
	UserID    string
	Username  string
	JTI       string
	Type      TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type contextKey string

const claimsKey contextKey = "jwt_claims"

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}
