package client

import (
	"errors"
	"fmt"
)

const (
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeTokenInvalid           = "TOKEN_INVALID"
	CodeRefreshFailed          = "REFRESH_FAILED"
	CodeUpstreamUnavailable    = "UPSTREAM_UNAVAILABLE"
)

var (
	ErrRefreshFailed   = errors.New("session refresh failed")
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrNonJSONResponse = errors.New("server returned a non-JSON response")
)

// APIError is a decoded error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	TraceID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// RefreshError is returned when a request failed with TOKEN_EXPIRED and the
// single refresh attempt failed too. It matches ErrRefreshFailed and unwraps
// to both the original request error and the refresh error.
type RefreshError struct {
	Original error
	Refresh  error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%v: %v (original: %v)", ErrRefreshFailed, e.Refresh, e.Original)
}

func (e *RefreshError) Is(target error) bool {
	return target == ErrRefreshFailed
}

func (e *RefreshError) Unwrap() []error {
	return []error{e.Original, e.Refresh}
}
