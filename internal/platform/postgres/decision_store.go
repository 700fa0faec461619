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

// PostgresDecisionStore implements the store.DecisionStore interface
// on the adaptive_logs table.
type PostgresDecisionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDecisionStore creates a new PostgreSQL implementation of the DecisionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresDecisionStore(db store.DBTX, logger *slog.Logger) *PostgresDecisionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDecisionStore{
		db:     db,
		logger: logger.With(slog.String("component", "decision_store")),
	}
}

// Ensure PostgresDecisionStore implements store.DecisionStore interface
var _ store.DecisionStore = (*PostgresDecisionStore)(nil)

const decisionColumns = `user_id, learning_language, exercise_type, current_difficulty, next_difficulty,
	mastery_score, reason, model_used, model_prediction, consistency_adjustment, error_rate_adjustment,
	speed_adjustment, avg_time_spent, last_correct, error_rate, decided_at`

// Create implements store.DecisionStore.Create
func (s *PostgresDecisionStore) Create(ctx context.Context, entry *domain.DecisionLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("decision log validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `INSERT INTO adaptive_logs (` + decisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`

	var prediction sql.NullInt64
	if entry.ModelPrediction != nil {
		prediction = sql.NullInt64{Int64: int64(*entry.ModelPrediction), Valid: true}
	}
	var avgTime, errorRate sql.NullFloat64
	if entry.AvgTimeSpent != nil {
		avgTime = sql.NullFloat64{Float64: *entry.AvgTimeSpent, Valid: true}
	}
	if entry.ErrorRate != nil {
		errorRate = sql.NullFloat64{Float64: *entry.ErrorRate, Valid: true}
	}
	var lastCorrect sql.NullBool
	if entry.LastCorrect != nil {
		lastCorrect = sql.NullBool{Bool: *entry.LastCorrect, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, query,
		entry.UserID,
		entry.LearningLanguage,
		entry.ExerciseType,
		entry.CurrentDifficulty,
		entry.NextDifficulty,
		entry.MasteryScore,
		entry.Reason,
		entry.ModelUsed,
		prediction,
		entry.Adjustments.Consistency,
		entry.Adjustments.ErrorRate,
		entry.Adjustments.Speed,
		avgTime,
		lastCorrect,
		errorRate,
		entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		log.Error("failed to create decision log",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID))
		return store.NewStoreError("decision_log", "create", "insert failed", MapError(err))
	}

	log.Debug("decision log created",
		slog.Int64("log_id", entry.ID),
		slog.String("user_id", entry.UserID),
		slog.Int("next_difficulty", entry.NextDifficulty))
	return nil
}

// List implements store.DecisionStore.List
func (s *PostgresDecisionStore) List(ctx context.Context, limit int) ([]domain.DecisionLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		return []domain.DecisionLog{}, nil
	}

	query := `SELECT id, ` + decisionColumns + `
		FROM adaptive_logs
		ORDER BY decided_at DESC, id DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		log.Error("failed to query decision logs", slog.String("error", err.Error()))
		return nil, store.NewStoreError("decision_log", "list", "query failed", MapError(err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close decision rows", slog.String("error", cerr.Error()))
		}
	}()

	logs := []domain.DecisionLog{}
	for rows.Next() {
		var entry domain.DecisionLog
		var prediction sql.NullInt64
		var avgTime, errorRate sql.NullFloat64
		var lastCorrect sql.NullBool
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.LearningLanguage,
			&entry.ExerciseType,
			&entry.CurrentDifficulty,
			&entry.NextDifficulty,
			&entry.MasteryScore,
			&entry.Reason,
			&entry.ModelUsed,
			&prediction,
			&entry.Adjustments.Consistency,
			&entry.Adjustments.ErrorRate,
			&entry.Adjustments.Speed,
			&avgTime,
			&lastCorrect,
			&errorRate,
			&entry.Timestamp,
		); err != nil {
			log.Error("failed to scan decision row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("decision_log", "list", "scan failed", err)
		}
		if prediction.Valid {
			p := int(prediction.Int64)
			entry.ModelPrediction = &p
		}
		if avgTime.Valid {
			v := avgTime.Float64
			entry.AvgTimeSpent = &v
		}
		if errorRate.Valid {
			v := errorRate.Float64
			entry.ErrorRate = &v
		}
		if lastCorrect.Valid {
			v := lastCorrect.Bool
			entry.LastCorrect = &v
		}
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating decision rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("decision_log", "list", "row iteration failed", err)
	}

	return logs, nil
}

