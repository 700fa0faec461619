package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decisionRowColumns = []string{
	"id", "user_id", "learning_language", "exercise_type", "current_difficulty", "next_difficulty",
	"mastery_score", "reason", "model_used", "model_prediction", "consistency_adjustment",
	"error_rate_adjustment", "speed_adjustment", "avg_time_spent", "last_correct", "error_rate", "decided_at",
}

func newDecisionStore(t *testing.T) (*PostgresDecisionStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresDecisionStore(db, nil), mock
}

func sampleDecisionLog() *domain.DecisionLog {
	avg, rate, last := 7.5, 0.0, true
	return &domain.DecisionLog{
		AdaptiveDecision: domain.AdaptiveDecision{
			UserID:            "user-1",
			CurrentDifficulty: 2,
			NextDifficulty:    3,
			MasteryScore:      0.82,
			Reason:            "3 consecutive correct answers, low error rate",
			Adjustments:       domain.DifficultyAdjustments{Consistency: 1, ErrorRate: 1},
			Timestamp:         fixedNow,
		},
		LearningLanguage: "es",
		ExerciseType:     "general",
		AvgTimeSpent:     &avg,
		LastCorrect:      &last,
		ErrorRate:        &rate,
	}
}

func TestPostgresDecisionStore_Create(t *testing.T) {
	t.Run("assigns id from RETURNING", func(t *testing.T) {
		s, mock := newDecisionStore(t)
		entry := sampleDecisionLog()
		mock.ExpectQuery("INSERT INTO adaptive_logs (.+) RETURNING id").
			WithArgs("user-1", "es", "general", 2, 3, 0.82,
				"3 consecutive correct answers, low error rate", false, nil,
				1, 1, 0, 7.5, true, 0.0, fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(41)))

		require.NoError(t, s.Create(context.Background(), entry))
		assert.Equal(t, int64(41), entry.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid decision is rejected", func(t *testing.T) {
		s, mock := newDecisionStore(t)
		entry := sampleDecisionLog()
		entry.NextDifficulty = 5

		err := s.Create(context.Background(), entry)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		s, mock := newDecisionStore(t)
		mock.ExpectQuery("INSERT INTO adaptive_logs").WillReturnError(assert.AnError)

		err := s.Create(context.Background(), sampleDecisionLog())
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestPostgresDecisionStore_List(t *testing.T) {
	s, mock := newDecisionStore(t)
	mock.ExpectQuery("SELECT id, (.+) FROM adaptive_logs ORDER BY decided_at DESC").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(decisionRowColumns).
			AddRow(int64(2), "user-1", "es", "general", 3, 4, 0.9, "model prediction (rules suggest: stable performance)",
				true, int64(4), 0, 0, 0, 6.0, true, 0.1, fixedNow).
			AddRow(int64(1), "user-2", "fr", "general", 1, 1, 0.5, "no exercise history available",
				false, nil, 0, 0, 0, nil, nil, nil, fixedNow.Add(-1)))

	logs, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, int64(2), logs[0].ID)
	assert.True(t, logs[0].ModelUsed)
	require.NotNil(t, logs[0].ModelPrediction)
	assert.Equal(t, 4, *logs[0].ModelPrediction)
	require.NotNil(t, logs[0].AvgTimeSpent)
	assert.InDelta(t, 6.0, *logs[0].AvgTimeSpent, 1e-9)

	assert.Nil(t, logs[1].ModelPrediction)
	assert.Nil(t, logs[1].AvgTimeSpent)
	assert.Nil(t, logs[1].LastCorrect)
	assert.Nil(t, logs[1].ErrorRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDecisionStore_List_ZeroLimit(t *testing.T) {
	s, _ := newDecisionStore(t)
	logs, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
