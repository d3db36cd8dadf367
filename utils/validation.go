package utils

import (
	"regexp"

	"droidfolio/apperrors"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateUsername checks the username is 3-30 letters, digits, '_' or '-'
func ValidateUsername(username string) *apperrors.AppError {
	if len(username) < 3 || len(username) > 30 || !usernameRegex.MatchString(username) {
		return apperrors.NewInvalidUsername(username)
	}
	return nil
}
