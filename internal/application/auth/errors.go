package auth

import "serviceloop-backend/internal/pkg/apperr"

var (
	ErrEmailPasswordRequired = apperr.Validation("Email and password are required")
	ErrInvalidEmail          = apperr.Validation("Please enter a valid email address")
	ErrWeakPassword          = apperr.Validation("Password must be at least 6 characters")
	ErrEmailTaken            = apperr.Conflict("An account with this email already exists. Please sign in instead.")
	ErrInvalidCredentials    = apperr.Unauthenticated("Invalid email or password")
	ErrIncorrectPassword     = apperr.Validation("Current password is incorrect")
	ErrSamePassword          = apperr.Validation("New password must be different from the current password")
	ErrInvalidResetToken     = apperr.Validation("Reset link is invalid or has expired")
)
