package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/adaptive-api/internal/domain"
)

// UserStatsStore defines the interface for user standing statistics.
// Stats are keyed by user ID and learning language.
type UserStatsStore interface {
	// Get retrieves the stats for a user in one learning language.
	// Returns ErrUserStatsNotFound if no row exists.
	Get(ctx context.Context, userID, learningLanguage string) (*domain.UserStats, error)

	// Upsert creates or replaces the stats row.
	// Returns validation errors from domain.UserStats if data is invalid.
	Upsert(ctx context.Context, stats *domain.UserStats) error

	// IncrementExercisesCompleted adds one completed exercise, creating a
	// default row first when the user has none.
	IncrementExercisesCompleted(ctx context.Context, userID, learningLanguage string) error

	// WithTx returns a new UserStatsStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStatsStore
}

// UserStatsInvalidator is implemented by user stats stores that cache reads.
// Writes made through WithTx are not evicted by the store itself; callers
// invalidate once the transaction has committed.
type UserStatsInvalidator interface {
	Invalidate(ctx context.Context, userID, learningLanguage string)
}
