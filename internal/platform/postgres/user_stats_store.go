package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/platform/logger"
	"github.com/phrazzld/adaptive-api/internal/store"
)

// PostgresUserStatsStore implements the store.UserStatsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresUserStatsStore creates a new PostgreSQL implementation of the UserStatsStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStatsStore(db store.DBTX, logger *slog.Logger) *PostgresUserStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_stats_store")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Ensure PostgresUserStatsStore implements store.UserStatsStore interface
var _ store.UserStatsStore = (*PostgresUserStatsStore)(nil)

// Get implements store.UserStatsStore.Get
// Returns store.ErrUserStatsNotFound if no row exists.
func (s *PostgresUserStatsStore) Get(
	ctx context.Context,
	userID, learningLanguage string,
) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving user stats",
		slog.String("user_id", userID),
		slog.String("learning_language", learningLanguage))

	query := `
		SELECT user_id, learning_language, xp, level, exercises_completed, lessons_completed, updated_at
		FROM user_stats
		WHERE user_id = $1 AND learning_language = $2
	`

	var stats domain.UserStats
	err := s.db.QueryRowContext(ctx, query, userID, learningLanguage).Scan(
		&stats.UserID,
		&stats.LearningLanguage,
		&stats.XP,
		&stats.Level,
		&stats.ExercisesCompleted,
		&stats.LessonsCompleted,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user stats not found",
				slog.String("user_id", userID),
				slog.String("learning_language", learningLanguage))
			return nil, store.ErrUserStatsNotFound
		}
		log.Error("failed to get user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return nil, store.NewStoreError("user_stats", "get", "query failed", MapError(err))
	}

	return &stats, nil
}

// Upsert implements store.UserStatsStore.Upsert
// It inserts the row or replaces every mutable column of an existing one.
func (s *PostgresUserStatsStore) Upsert(ctx context.Context, stats *domain.UserStats) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if stats.UserID == "" {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyUserID)
	}
	if err := domain.ValidateLearningLanguage(stats.LearningLanguage); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if err := stats.Validate(); err != nil {
		log.Warn("user stats validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	if stats.UpdatedAt.IsZero() {
		stats.UpdatedAt = s.now()
	}

	query := `
		INSERT INTO user_stats (user_id, learning_language, xp, level, exercises_completed, lessons_completed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, learning_language) DO UPDATE SET
			xp = EXCLUDED.xp,
			level = EXCLUDED.level,
			exercises_completed = EXCLUDED.exercises_completed,
			lessons_completed = EXCLUDED.lessons_completed,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		stats.UserID,
		stats.LearningLanguage,
		stats.XP,
		stats.Level,
		stats.ExercisesCompleted,
		stats.LessonsCompleted,
		stats.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID))
		return store.NewStoreError("user_stats", "upsert", "exec failed", MapError(err))
	}

	log.Debug("user stats upserted",
		slog.String("user_id", stats.UserID),
		slog.String("learning_language", stats.LearningLanguage))
	return nil
}

// IncrementExercisesCompleted implements store.UserStatsStore.IncrementExercisesCompleted
func (s *PostgresUserStatsStore) IncrementExercisesCompleted(
	ctx context.Context,
	userID, learningLanguage string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO user_stats (user_id, learning_language, xp, level, exercises_completed, lessons_completed, updated_at)
		VALUES ($1, $2, 0, 1, 1, 0, $3)
		ON CONFLICT (user_id, learning_language) DO UPDATE SET
			exercises_completed = user_stats.exercises_completed + 1,
			updated_at = EXCLUDED.updated_at
	`
	result, err := s.db.ExecContext(ctx, query, userID, learningLanguage, s.now())
	if err != nil {
		log.Error("failed to increment exercises completed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return store.NewStoreError("user_stats", "increment", "exec failed", MapError(err))
	}

	return CheckRowsAffected(result, "user stats")
}

// WithTx implements store.UserStatsStore.WithTx
func (s *PostgresUserStatsStore) WithTx(tx *sql.Tx) store.UserStatsStore {
	return &PostgresUserStatsStore{
		db:     tx,
		logger: s.logger,
		now:    s.now,
	}
}
