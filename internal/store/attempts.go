package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/adaptive-api/internal/domain"
)

// AttemptStore defines the interface for exercise attempt history.
type AttemptStore interface {
	// Create saves a new attempt.
	// Returns ErrAttemptExists when the attempt ID is already stored.
	Create(ctx context.Context, attempt *domain.ExerciseAttempt) error

	// ListRecent returns up to limit attempts for the user and language,
	// ordered newest first. Returns an empty slice when there are none.
	ListRecent(ctx context.Context, userID, learningLanguage string, limit int) ([]domain.ExerciseAttempt, error)

	// WithTx returns a new AttemptStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AttemptStore
}
