package service

import (
	"errors"
	"net/http"

	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
)

// handleStoreError keeps store outages distinguishable from auth failures.
func handleStoreError(err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return commonerrors.ErrUpstreamUnavailable.WithCause(err)
	}
	if errors.Is(err, commonerrors.ErrUpstreamUnavailable) {
		return err
	}
	if commonerrors.IsDomainError(err) {
		return err
	}
	return newInternalError("DB_ERROR", "account store error", err)
}

func isExpectedStoreOutcome(err error) bool {
	return errors.Is(err, commonerrors.ErrUserNotFound) ||
		errors.Is(err, commonerrors.ErrUsernameAlreadyExists) ||
		errors.Is(err, commonerrors.ErrEmailAlreadyExists)
}

func refreshFailed(reason string, cause error) error {
	incrementRefreshFailure(reason)
	err := commonerrors.ErrRefreshFailed.WithDetails(map[string]any{"reason": reason})
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}

func newInternalError(code, message string, cause error) commonerrors.DomainError {
	err := commonerrors.NewDomainError(
		code,
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		message,
	)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}
