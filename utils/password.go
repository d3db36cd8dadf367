package utils

import (
	"droidfolio/apperrors"

	"golang.org/x/crypto/bcrypt"
)

// ValidatePassword rejects passwords the account store will not accept.
// The demo accounts use short passwords, so only emptiness is checked.
func ValidatePassword(password string) *apperrors.AppError {
	if password == "" {
		return apperrors.NewValidationError("Password is required")
	}
	if len(password) > 72 {
		// bcrypt ignores everything past 72 bytes
		return apperrors.NewValidationError("Password cannot exceed 72 bytes")
	}
	return nil
}

func HashPassword(password string, cost int) (string, *apperrors.AppError) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", apperrors.NewInternalError("Failed to hash password").WithInternal(err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
