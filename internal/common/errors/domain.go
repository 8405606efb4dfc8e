package commonerrors

import (
	"errors"
	"fmt"
	"maps"
)

type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "VALIDATION"
	CategoryAuth          ErrorCategory = "AUTH"
	CategoryNotFound      ErrorCategory = "NOT_FOUND"
	CategoryConflict      ErrorCategory = "CONFLICT"
	CategoryUnauthorized  ErrorCategory = "UNAUTHORIZED"
	CategoryInternal      ErrorCategory = "INTERNAL"
	CategoryExternal      ErrorCategory = "EXTERNAL"
	CategoryConfiguration ErrorCategory = "CONFIGURATION"
	CategoryRateLimit     ErrorCategory = "RATE_LIMIT"
)

// DomainError is an error with a stable machine-readable code. Two domain
// errors match under errors.Is when their codes are equal, so a copy made by
// WithCause or WithDetails still matches the sentinel it came from.
type DomainError interface {
	error
	Code() string
	Category() ErrorCategory
	HTTPStatus() int
	Message() string
	Details() map[string]any
	TraceID() string
	Unwrap() error
	WithCause(cause error) DomainError
	WithDetails(details map[string]any) DomainError
	WithTraceID(traceID string) DomainError
}

type domainError struct {
	code     string
	category ErrorCategory
	status   int
	message  string
	details  map[string]any
	traceID  string
	cause    error
}

func (e *domainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *domainError) Code() string {
	return e.code
}

func (e *domainError) Category() ErrorCategory {
	return e.category
}

func (e *domainError) HTTPStatus() int {
	return e.status
}

func (e *domainError) Message() string {
	return e.message
}

func (e *domainError) Details() map[string]any {
	return e.details
}

func (e *domainError) TraceID() string {
	return e.traceID
}

func (e *domainError) Unwrap() error {
	return e.cause
}

func (e *domainError) Is(target error) bool {
	other, ok := target.(*domainError)
	if !ok {
		return false
	}
	return e.code == other.code
}

func (e *domainError) clone() *domainError {
	cp := *e
	if e.details != nil {
		cp.details = maps.Clone(e.details)
	}
	return &cp
}

func (e *domainError) WithCause(cause error) DomainError {
	cp := e.clone()
	cp.cause = cause
	return cp
}

func (e *domainError) WithDetails(details map[string]any) DomainError {
	cp := e.clone()
	if cp.details == nil {
		cp.details = make(map[string]any, len(details))
	}
	maps.Copy(cp.details, details)
	return cp
}

func (e *domainError) WithTraceID(traceID string) DomainError {
	cp := e.clone()
	cp.traceID = traceID
	return cp
}

func NewDomainError(code string, category ErrorCategory, status int, message string) DomainError {
	return &domainError{
		code:     code,
		category: category,
		status:   status,
		message:  message,
	}
}

func IsDomainError(err error) bool {
	var de DomainError
	return errors.As(err, &de)
}

func AsDomainError(err error) (DomainError, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
