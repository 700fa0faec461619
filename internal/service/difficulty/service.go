package difficulty

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/adaptive-api/internal/domain"
)

// DefaultExerciseType is recorded when a request names no exercise type.
const DefaultExerciseType = "general"

// NextDifficultyRequest asks for the next difficulty of one user in one language.
type NextDifficultyRequest struct {
	UserID           string
	LearningLanguage string
	ExerciseType     string
	// CurrentDifficulty overrides the difficulty inferred from history.
	CurrentDifficulty *int
}

// RecordAttemptRequest describes a finished exercise. Optional fields follow
// the domain.AttemptInput defaulting rules.
type RecordAttemptRequest struct {
	UserID           string
	LearningLanguage string
	ExerciseID       string
	Correct          *bool
	TimeSpentSeconds *float64
	Difficulty       *int
}

// Service provides the adaptive difficulty operations.
type Service interface {
	// NextDifficulty decides the difficulty of the user's next exercise.
	//
	// Missing stats are replaced by domain.DefaultUserStats. Failures to read
	// stats or history return ErrCollaboratorUnavailable. A failure to record
	// the decision is logged and does not fail the call.
	NextDifficulty(ctx context.Context, req NextDifficultyRequest) (*domain.AdaptiveDecision, error)

	// RecordAttempt stores an attempt and counts it toward the user's
	// completed exercises in one transaction.
	RecordAttempt(ctx context.Context, req RecordAttemptRequest) (*domain.ExerciseAttempt, error)

	// ListDecisions returns up to limit decision logs, newest first.
	ListDecisions(ctx context.Context, limit int) ([]domain.DecisionLog, error)
}

// Common error types for the difficulty service
var (
	// ErrInvalidRequest indicates the request failed validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCollaboratorUnavailable indicates a store the decision depends on failed.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

// ServiceError wraps errors from the difficulty service with additional context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "next_difficulty", "record_attempt")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func unavailable(operation, message string, err error) error {
	return NewServiceError(operation, message, fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err))
}

func invalid(operation string, err error) error {
	return NewServiceError(operation, "validation failed", fmt.Errorf("%w: %w", ErrInvalidRequest, err))
}
