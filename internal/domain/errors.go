// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyUserID is returned when a record has no user identifier.
	ErrEmptyUserID = errors.New("user ID cannot be empty")

	// ErrInvalidLearningLanguage is returned when a learning language code
	// is missing or outside the accepted length.
	ErrInvalidLearningLanguage = errors.New("invalid learning language")

	// ErrInvalidDifficulty is returned when a difficulty level falls outside
	// the representable range.
	ErrInvalidDifficulty = errors.New("difficulty out of range")

	// ErrInvalidMasteryScore is returned when a mastery score is outside [0,1].
	ErrInvalidMasteryScore = errors.New("mastery score must be between 0 and 1")
)
