package commonerrors

import "net/http"

const (
	CodeConfiguration          = "CONFIGURATION_ERROR"
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeTokenInvalid           = "TOKEN_INVALID"
	CodeRefreshFailed          = "REFRESH_FAILED"
	CodeUpstreamUnavailable    = "UPSTREAM_UNAVAILABLE"
)

var (
	ErrConfiguration = NewDomainError(
		CodeConfiguration,
		CategoryConfiguration,
		http.StatusInternalServerError,
		"server is misconfigured",
	)

	ErrMissingRequiredEnv = NewDomainError(
		"MISSING_REQUIRED_ENV",
		CategoryConfiguration,
		http.StatusInternalServerError,
		"missing required environment variable",
	)

	ErrInvalidJWTSecret = NewDomainError(
		"INVALID_JWT_SECRET",
		CategoryConfiguration,
		http.StatusInternalServerError,
		"JWT_SECRET must be at least 32 bytes",
	)

	ErrAuthenticationRequired = NewDomainError(
		CodeAuthenticationRequired,
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"authentication required",
	)

	ErrTokenExpired = NewDomainError(
		CodeTokenExpired,
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"token expired",
	)

	ErrTokenInvalid = NewDomainError(
		CodeTokenInvalid,
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"token is not valid",
	)

	ErrRefreshFailed = NewDomainError(
		CodeRefreshFailed,
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh failed",
	)

	ErrUpstreamUnavailable = NewDomainError(
		CodeUpstreamUnavailable,
		CategoryExternal,
		http.StatusServiceUnavailable,
		"service temporarily unavailable",
	)

	ErrCircuitOpen = NewDomainError(
		"CIRCUIT_OPEN",
		CategoryExternal,
		http.StatusServiceUnavailable,
		"circuit breaker is open",
	)

	ErrUserNotFound = NewDomainError(
		"USER_NOT_FOUND",
		CategoryNotFound,
		http.StatusNotFound,
		"user not found",
	)

	ErrUsernameAlreadyExists = NewDomainError(
		"USERNAME_TAKEN",
		CategoryConflict,
		http.StatusConflict,
		"username already exists",
	)

	ErrEmailAlreadyExists = NewDomainError(
		"EMAIL_TAKEN",
		CategoryConflict,
		http.StatusConflict,
		"email already registered",
	)

	ErrRateLimited = NewDomainError(
		"RATE_LIMITED",
		CategoryRateLimit,
		http.StatusTooManyRequests,
		"too many requests, please try again later",
	)

	ErrOriginNotAllowed = NewDomainError(
		"ORIGIN_NOT_ALLOWED",
		CategoryUnauthorized,
		http.StatusForbidden,
		"origin not allowed by CORS policy",
	)

	ErrInternalError = NewDomainError(
		"INTERNAL_ERROR",
		CategoryInternal,
		http.StatusInternalServerError,
		"internal server error",
	)
)
