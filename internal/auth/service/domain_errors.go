package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
)

var (
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid username or password",
	)

	ErrUsernameTaken = commonerrors.ErrUsernameAlreadyExists
	ErrEmailTaken    = commonerrors.ErrEmailAlreadyExists

	ErrAccountNotFound = commonerrors.ErrUserNotFound

	ErrValidationUsernameLength = newValidationError(
		"VALIDATION_USERNAME_LENGTH",
		"username must be between 3 and 32 characters",
	)

	ErrValidationUsernameChars = newValidationError(
		"VALIDATION_USERNAME_CHARS",
		"username may contain latin letters, digits, '_' and '-' and must start and end with a letter or digit",
	)

	ErrValidationPasswordLength = newValidationError(
		"VALIDATION_PASSWORD_LENGTH",
		"password must be between 8 and 72 characters",
	)

	ErrValidationPasswordLatinDigit = newValidationError(
		"VALIDATION_PASSWORD_LETTER_DIGIT",
		"password must contain at least one letter and one digit",
	)

	ErrValidationEmail = newValidationError(
		"VALIDATION_EMAIL",
		"a valid email address is required",
	)

	ErrValidationName = newValidationError(
		"VALIDATION_NAME",
		"name must be between 1 and 64 characters",
	)

	ErrValidationPasswordUnchanged = newValidationError(
		"VALIDATION_PASSWORD_UNCHANGED",
		"new password must differ from the current one",
	)
)

func newValidationError(code, message string) commonerrors.DomainError {
	return commonerrors.NewDomainError(
		code,
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		message,
	)
}
