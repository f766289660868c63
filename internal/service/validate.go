package service

import (
	"regexp"
	"unicode"

	"github.com/hunterdex/armory/internal/apperr"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateUsername(username string) error {
	if len(username) < 3 {
		return apperr.Validationf("username", "must be at least 3 characters")
	}
	if len(username) > 80 {
		return apperr.Validationf("username", "must be at most 80 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperr.Validationf("email", "invalid email address")
	}
	return nil
}

// validatePassword enforces the registration policy: at least 8
// characters with an upper-case letter, a lower-case letter and a digit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return apperr.Validationf("password", "must be at least 8 characters")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return apperr.Validationf("password", "must contain an upper-case letter, a lower-case letter and a digit")
	}
	return nil
}
