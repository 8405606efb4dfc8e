package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/community-board/internal/common/constants"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	validate      = validator.New(validator.WithRequiredStructEnabled())
)

func validateUsername(username string) error {
	if len(username) < constants.UsernameMinLength || len(username) > constants.UsernameMaxLength {
		return ErrValidationUsernameLength
	}
	if !isValidUsername(username) {
		return ErrValidationUsernameChars
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < constants.PasswordMinLength || len(password) > constants.PasswordMaxLength {
		return ErrValidationPasswordLength
	}
	if !isValidPassword(password) {
		return ErrValidationPasswordLatinDigit
	}
	return nil
}

func validateEmail(email string) error {
	if err := validate.Var(email, fmt.Sprintf("required,email,max=%d", constants.EmailMaxLength)); err != nil {
		return ErrValidationEmail.WithCause(err)
	}
	return nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 || n > constants.NameMaxLength {
		return ErrValidationName
	}
	return nil
}

func validateRegistration(input RegisterInput) error {
	if err := validateUsername(input.Username); err != nil {
		return err
	}
	if err := validateEmail(input.Email); err != nil {
		return err
	}
	if err := validateName(input.Name); err != nil {
		return err
	}
	return validatePassword(input.Password)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidUsername(value string) bool {
	if !usernameRegex.MatchString(value) {
		return false
	}

	if !unicode.IsLetter(rune(value[0])) && !unicode.IsDigit(rune(value[0])) {
		return false
	}

	if !unicode.IsLetter(rune(value[len(value)-1])) && !unicode.IsDigit(rune(value[len(value)-1])) {
		return false
	}

	return true
}

func isValidPassword(value string) bool {
	hasLetter := false
	hasDigit := false

	for _, r := range value {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			return true
		}
	}

	return false
}

// maskUsername keeps the first and last characters and hides the rest.
func maskUsername(username string) string {
	runes := []rune(username)
	if len(runes) <= 2 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}
