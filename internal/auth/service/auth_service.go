package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AlibekovAA/community-board/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/community-board/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	"github.com/AlibekovAA/community-board/internal/common/jwtverify"
	"github.com/AlibekovAA/community-board/internal/common/logger"
	"github.com/AlibekovAA/community-board/internal/common/resilience"
	userdomain "github.com/AlibekovAA/community-board/internal/user/domain"
	userrepo "github.com/AlibekovAA/community-board/internal/user/repository"
)

type AuthService struct {
	repo        userrepo.Repository
	hasher      commoncrypto.PasswordHasher
	idGenerator commoncrypto.IDGenerator
	issuer      *TokenIssuer
	verifier    *jwtverify.Verifier
	clock       clock.Clock
	log         *logger.Logger
	dbBreaker   *resilience.CircuitBreaker
}

type AuthServiceDeps struct {
	Repo        userrepo.Repository
	Hasher      commoncrypto.PasswordHasher
	IDGenerator commoncrypto.IDGenerator
	Clock       clock.Clock
	Log         *logger.Logger
}

type AuthServiceConfig struct {
	JWTSecret               string
	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	CircuitBreakerThreshold int32
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration
}

func NewAuthService(deps AuthServiceDeps, config AuthServiceConfig) *AuthService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}
	log := deps.Log
	if log == nil {
		log = logger.Discard()
	}

	return &AuthService{
		repo:        deps.Repo,
		hasher:      deps.Hasher,
		idGenerator: deps.IDGenerator,
		issuer:      NewTokenIssuer(config.JWTSecret, deps.IDGenerator, config.AccessTokenTTL, config.RefreshTokenTTL, clk),
		verifier:    jwtverify.NewVerifier(config.JWTSecret, clk),
		clock:       clk,
		log:         log,
		dbBreaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Threshold:  config.CircuitBreakerThreshold,
			Timeout:    config.CircuitBreakerTimeout,
			ResetAfter: config.CircuitBreakerReset,
			Name:       "auth_db",
			Clock:      clk,
			Logger:     log,
			Ignore:     isExpectedStoreOutcome,
		}),
	}
}

// Verifier exposes the verifier built from the same secret and clock, so the
// HTTP layer authenticates with exactly what the service issues.
func (s *AuthService) Verifier() *jwtverify.Verifier {
	return s.verifier
}

type RegisterInput struct {
	Username string
	Email    string
	Name     string
	Password string
}

type LoginInput struct {
	// Username holds either a username or an email address.
	Username string
	Password string
}

type AuthResult struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type RefreshResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
}

type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "register_attempt",
	}).Info("register attempt")

	if err := validateRegistration(input); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_validation_failed",
		}).Warnf("register validation failed: %v", err)
		return AuthResult{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return AuthResult{}, newInternalError("HASH_ERROR", "failed to hash password", err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_id_generation_failed",
		}).Errorf("register failed: id generation error: %v", err)
		return AuthResult{}, newInternalError("ID_GENERATION_ERROR", "failed to generate account id", err)
	}

	now := s.clock.Now().UTC()
	account := userdomain.Account{
		ID:                userdomain.ID(id),
		Username:          input.Username,
		Email:             input.Email,
		Name:              input.Name,
		PasswordHash:      hash,
		CreatedAt:         now,
		UpdatedAt:         now,
		PasswordChangedAt: now,
	}

	err = s.dbBreaker.Call(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, account)
	})
	if err != nil {
		switch {
		case errors.Is(err, commonerrors.ErrUsernameAlreadyExists):
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_username_exists",
			}).Warn("register failed: username already exists")
			return AuthResult{}, ErrUsernameTaken
		case errors.Is(err, commonerrors.ErrEmailAlreadyExists):
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_email_exists",
			}).Warn("register failed: email already exists")
			return AuthResult{}, ErrEmailTaken
		}
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_create_failed",
		}).Errorf("register failed: %v", err)
		return AuthResult{}, handleStoreError(err)
	}

	pair, err := s.issuer.IssuePair(account)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"user_id":  id,
			"action":   "register_token_issue_failed",
		}).Errorf("register failed: token issue error: %v", err)
		return AuthResult{}, newInternalError("TOKEN_ISSUE_ERROR", "failed to issue tokens", err)
	}

	incrementRegistrations()
	s.log.WithFields(ctx, logger.Fields{
		"username": account.Username,
		"user_id":  id,
		"action":   "register_success",
	}).Info("register success")

	return resultFromPair(pair), nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	identifier := strings.TrimSpace(input.Username)

	s.log.WithFields(ctx, logger.Fields{
		"username": identifier,
		"action":   "login_attempt",
	}).Info("login attempt")

	if identifier == "" || input.Password == "" {
		incrementLoginAttempt("invalid_input")
		return AuthResult{}, ErrInvalidCredentials
	}

	var account userdomain.Account
	err := s.dbBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		if strings.Contains(identifier, "@") {
			account, err = s.repo.FindByEmail(ctx, normalizeEmail(identifier))
		} else {
			account, err = s.repo.FindByUsername(ctx, identifier)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			incrementLoginAttempt("not_found")
			s.log.WithFields(ctx, logger.Fields{
				"username": identifier,
				"action":   "login_user_not_found",
			}).Warn("login failed: not found")
			return AuthResult{}, ErrInvalidCredentials
		}
		incrementLoginAttempt("error")
		s.log.WithFields(ctx, logger.Fields{
			"username": identifier,
			"action":   "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return AuthResult{}, handleStoreError(err)
	}

	if err := s.hasher.Compare(account.PasswordHash, input.Password); err != nil {
		incrementLoginAttempt("bad_password")
		s.log.WithFields(ctx, logger.Fields{
			"username": identifier,
			"action":   "login_invalid_password",
		}).Warn("login failed: invalid password")
		return AuthResult{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(account)
	if err != nil {
		incrementLoginAttempt("error")
		s.log.WithFields(ctx, logger.Fields{
			"username": identifier,
			"user_id":  string(account.ID),
			"action":   "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return AuthResult{}, newInternalError("TOKEN_ISSUE_ERROR", "failed to issue tokens", err)
	}

	incrementLoginAttempt("success")
	s.log.WithFields(ctx, logger.Fields{
		"username": account.Username,
		"user_id":  string(account.ID),
		"action":   "login_success",
	}).Info("login success")

	return resultFromPair(pair), nil
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token is not rotated: it stays valid until it expires or the account
// password changes.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return RefreshResult{}, refreshFailed("missing", nil)
	}

	claims, err := s.verifier.Verify(refreshToken, jwtverify.RefreshToken)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, commonerrors.ErrTokenExpired) {
			reason = "expired"
		}
		s.log.WithFields(ctx, logger.Fields{
			"reason": reason,
			"action": "refresh_rejected",
		}).Warnf("refresh rejected: %v", err)
		return RefreshResult{}, refreshFailed(reason, err)
	}

	var account userdomain.Account
	err = s.dbBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.repo.FindByID(ctx, userdomain.ID(claims.UserID))
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": claims.UserID,
				"action":  "refresh_user_not_found",
			}).Warn("refresh rejected: account not found")
			return RefreshResult{}, refreshFailed("invalid", err)
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "refresh_fetch_failed",
		}).Errorf("refresh failed: %v", err)
		return RefreshResult{}, handleStoreError(err)
	}

	// iat has second precision, so a token minted earlier in the same second
	// as the password change still passes.
	if claims.IssuedAt.Before(account.PasswordChangedAt.Truncate(time.Second)) {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "refresh_superseded",
		}).Warn("refresh rejected: issued before password change")
		return RefreshResult{}, refreshFailed("superseded", nil)
	}

	token, exp, err := s.issuer.IssueAccessToken(account)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "refresh_token_issue_failed",
		}).Errorf("refresh failed: token issue error: %v", err)
		return RefreshResult{}, newInternalError("TOKEN_ISSUE_ERROR", "failed to issue access token", err)
	}

	incrementRefreshTokensUsed()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": claims.UserID,
		"action":  "refresh_success",
	}).Info("access token refreshed")

	return RefreshResult{AccessToken: token, AccessExpiresAt: exp}, nil
}

// Logout records the event. Tokens are stateless and stay valid until they
// expire; the client discards them.
func (s *AuthService) Logout(ctx context.Context, claims *jwtverify.Claims) {
	fields := logger.Fields{"action": "logout"}
	if claims != nil {
		fields["user_id"] = claims.UserID
	}
	s.log.WithFields(ctx, fields).Info("logout")
}

func (s *AuthService) Me(ctx context.Context, userID string) (userdomain.Profile, error) {
	var account userdomain.Account
	err := s.dbBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.repo.FindByID(ctx, userdomain.ID(userID))
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return userdomain.Profile{}, ErrAccountNotFound
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "me_fetch_failed",
		}).Errorf("me failed: %v", err)
		return userdomain.Profile{}, handleStoreError(err)
	}
	return account.Profile(), nil
}

// CheckUsername reports whether username is free to register.
func (s *AuthService) CheckUsername(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return false, err
	}

	var exists bool
	err := s.dbBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		exists, err = s.repo.UsernameExists(ctx, username)
		return err
	})
	if err != nil {
		return false, handleStoreError(err)
	}
	return !exists, nil
}

// FindAccount returns the masked username registered with email.
func (s *AuthService) FindAccount(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}

	var account userdomain.Account
	err := s.dbBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.repo.FindByEmail(ctx, email)
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return "", ErrAccountNotFound
		}
		return "", handleStoreError(err)
	}
	return maskUsername(account.Username), nil
}

// ChangePassword replaces the password of an authenticated account and
// invalidates every refresh token issued before the change. The returned
// pair replaces the caller's tokens.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) (AuthResult, error) {
	if err := validatePassword(input.NewPassword); err != nil {
		return AuthResult{}, err
	}
	if input.NewPassword == input.CurrentPassword {
		return AuthResult{}, ErrValidationPasswordUnchanged
	}

	var account userdomain.Account
	err := s.dbBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.repo.FindByID(ctx, userdomain.ID(input.UserID))
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return AuthResult{}, ErrAccountNotFound
		}
		return AuthResult{}, handleStoreError(err)
	}

	if err := s.hasher.Compare(account.PasswordHash, input.CurrentPassword); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": input.UserID,
			"action":  "password_change_bad_current",
		}).Warn("password change rejected: wrong current password")
		return AuthResult{}, ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return AuthResult{}, newInternalError("HASH_ERROR", "failed to hash password", err)
	}

	// Whole seconds, so tokens issued right after the change are not
	// rejected by the iat comparison in Refresh.
	changedAt := s.clock.Now().UTC().Truncate(time.Second)
	err = s.dbBreaker.Call(ctx, func(ctx context.Context) error {
		return s.repo.UpdatePassword(ctx, account.ID, hash, changedAt)
	})
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": input.UserID,
			"action":  "password_change_failed",
		}).Errorf("password change failed: %v", err)
		return AuthResult{}, handleStoreError(err)
	}
	account.PasswordHash = hash
	account.PasswordChangedAt = changedAt

	pair, err := s.issuer.IssuePair(account)
	if err != nil {
		return AuthResult{}, newInternalError("TOKEN_ISSUE_ERROR", "failed to issue tokens", err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": input.UserID,
		"action":  "password_changed",
	}).Info("password changed")

	return resultFromPair(pair), nil
}

func resultFromPair(pair TokenPair) AuthResult {
	return AuthResult{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
