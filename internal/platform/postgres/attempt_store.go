package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/platform/logger"
	"github.com/phrazzld/adaptive-api/internal/store"
)

// PostgresAttemptStore implements the store.AttemptStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAttemptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttemptStore creates a new PostgreSQL implementation of the AttemptStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresAttemptStore(db store.DBTX, logger *slog.Logger) *PostgresAttemptStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAttemptStore{
		db:     db,
		logger: logger.With(slog.String("component", "attempt_store")),
	}
}

// Ensure PostgresAttemptStore implements store.AttemptStore interface
var _ store.AttemptStore = (*PostgresAttemptStore)(nil)

// Create implements store.AttemptStore.Create
func (s *PostgresAttemptStore) Create(ctx context.Context, attempt *domain.ExerciseAttempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := attempt.Validate(); err != nil {
		log.Warn("attempt validation failed during create",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO exercise_attempts
			(id, user_id, learning_language, exercise_id, correct, time_spent_seconds, difficulty, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var difficulty sql.NullInt64
	if attempt.Difficulty != nil {
		difficulty = sql.NullInt64{Int64: int64(*attempt.Difficulty), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.UserID,
		attempt.LearningLanguage,
		attempt.ExerciseID,
		attempt.Correct,
		attempt.TimeSpentSeconds,
		difficulty,
		attempt.AttemptedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("attempt already recorded",
				slog.String("attempt_id", attempt.ID.String()))
			return store.ErrAttemptExists
		}
		log.Error("failed to create attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()),
			slog.String("user_id", attempt.UserID))
		return store.NewStoreError("exercise_attempt", "create", "exec failed", MapError(err))
	}

	log.Debug("attempt recorded",
		slog.String("attempt_id", attempt.ID.String()),
		slog.String("user_id", attempt.UserID),
		slog.Bool("correct", attempt.Correct))
	return nil
}

// ListRecent implements store.AttemptStore.ListRecent
func (s *PostgresAttemptStore) ListRecent(
	ctx context.Context,
	userID, learningLanguage string,
	limit int,
) ([]domain.ExerciseAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		return []domain.ExerciseAttempt{}, nil
	}

	query := `
		SELECT id, user_id, learning_language, exercise_id, correct, time_spent_seconds, difficulty, attempted_at
		FROM exercise_attempts
		WHERE user_id = $1 AND learning_language = $2
		ORDER BY attempted_at DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, learningLanguage, limit)
	if err != nil {
		log.Error("failed to query recent attempts",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return nil, store.NewStoreError("exercise_attempt", "list", "query failed", MapError(err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close attempt rows", slog.String("error", cerr.Error()))
		}
	}()

	attempts := []domain.ExerciseAttempt{}
	for rows.Next() {
		var a domain.ExerciseAttempt
		var difficulty sql.NullInt64
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.LearningLanguage,
			&a.ExerciseID,
			&a.Correct,
			&a.TimeSpentSeconds,
			&difficulty,
			&a.AttemptedAt,
		); err != nil {
			log.Error("failed to scan attempt row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("exercise_attempt", "list", "scan failed", err)
		}
		if difficulty.Valid {
			d := int(difficulty.Int64)
			a.Difficulty = &d
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating attempt rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("exercise_attempt", "list", "row iteration failed", err)
	}

	log.Debug("recent attempts retrieved",
		slog.String("user_id", userID),
		slog.Int("count", len(attempts)))
	return attempts, nil
}

// WithTx implements store.AttemptStore.WithTx
func (s *PostgresAttemptStore) WithTx(tx *sql.Tx) store.AttemptStore {
	return &PostgresAttemptStore{
		db:     tx,
		logger: s.logger,
	}
}
