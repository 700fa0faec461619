package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/adaptive-api/internal/api/shared"
	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/service/difficulty"
	"github.com/phrazzld/adaptive-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, difficulty.ErrInvalidRequest),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// A store the decision depends on is down
	case errors.Is(err, difficulty.ErrCollaboratorUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"

	case errors.Is(err, domain.ErrEmptyUserID):
		return "Invalid user_id: required field"

	case errors.Is(err, domain.ErrInvalidLearningLanguage):
		return "Invalid learning_language: must be 2 to 10 characters"

	case errors.Is(err, domain.ErrInvalidDifficulty):
		return "Invalid current_difficulty: must be between 1 and 5"

	case errors.Is(err, difficulty.ErrInvalidRequest),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, store.ErrDuplicate):
		return "Attempt already recorded"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, difficulty.ErrCollaboratorUnavailable):
		return "Service temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'NextDifficultyRequest.UserID' Error:Field validation for 'UserID' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := jsonFieldName(fieldParts[1])
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// jsonFieldName converts a Go field name from a validator message into the
// snake_case name clients send.
func jsonFieldName(field string) string {
	switch field {
	case "UserID":
		return "user_id"
	case "LearningLanguage":
		return "learning_language"
	case "ExerciseType":
		return "exercise_type"
	case "CurrentDifficulty":
		return "current_difficulty"
	case "ExerciseID":
		return "exercise_id"
	case "TimeSpentSeconds":
		return "time_spent"
	default:
		return strings.ToLower(field)
	}
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too small or too short"
	case "max":
		return "too large or too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
