package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/community-board/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/community-board/internal/common/crypto"
	"github.com/AlibekovAA/community-board/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/community-board/internal/user/domain"
)

type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type TokenIssuer struct {
	jwtSecret       []byte
	idGenerator     commoncrypto.IDGenerator
	clock           clock.Clock
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewTokenIssuer(
	jwtSecret string,
	idGenerator commoncrypto.IDGenerator,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
	clk clock.Clock,
) *TokenIssuer {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &TokenIssuer{
		jwtSecret:       []byte(jwtSecret),
		idGenerator:     idGenerator,
		clock:           clk,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

func (ti *TokenIssuer) IssuePair(account userdomain.Account) (TokenPair, error) {
	access, accessExp, err := ti.IssueAccessToken(account)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, refreshExp, err := ti.sign(jwtverify.TokenClaims{Type: jwtverify.RefreshToken}, account.ID, ti.refreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	incrementRefreshTokensIssued()

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (ti *TokenIssuer) IssueAccessToken(account userdomain.Account) (string, time.Time, error) {
	token, exp, err := ti.sign(jwtverify.TokenClaims{
		Username: account.Username,
		Type:     jwtverify.AccessToken,
	}, account.ID, ti.accessTokenTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	incrementAccessTokensIssued()
	return token, exp, nil
}

func (ti *TokenIssuer) sign(claims jwtverify.TokenClaims, subject userdomain.ID, ttl time.Duration) (string, time.Time, error) {
	jti, err := ti.idGenerator.NewID()
	if err != nil {
		return "", time.Time{}, err
	}

	now := ti.clock.Now()
	expiresAt := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   string(subject),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := t.SignedString(ti.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}
