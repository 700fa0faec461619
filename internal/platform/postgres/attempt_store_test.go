package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var attemptColumns = []string{
	"id", "user_id", "learning_language", "exercise_id", "correct", "time_spent_seconds", "difficulty", "attempted_at",
}

func newAttemptStore(t *testing.T) (*PostgresAttemptStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresAttemptStore(db, nil), mock
}

func validAttempt() *domain.ExerciseAttempt {
	d := 3
	return &domain.ExerciseAttempt{
		ID:               uuid.New(),
		UserID:           "user-1",
		LearningLanguage: "es",
		ExerciseID:       "ex-42",
		Correct:          true,
		TimeSpentSeconds: 8.5,
		Difficulty:       &d,
		AttemptedAt:      fixedNow,
	}
}

func TestPostgresAttemptStore_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s, mock := newAttemptStore(t)
		a := validAttempt()
		mock.ExpectExec("INSERT INTO exercise_attempts").
			WithArgs(a.ID.String(), "user-1", "es", "ex-42", true, 8.5, int64(3), fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), a))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing difficulty is stored as null", func(t *testing.T) {
		s, mock := newAttemptStore(t)
		a := validAttempt()
		a.Difficulty = nil
		mock.ExpectExec("INSERT INTO exercise_attempts").
			WithArgs(sqlmock.AnyArg(), "user-1", "es", "ex-42", true, 8.5, nil, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), a))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id", func(t *testing.T) {
		s, mock := newAttemptStore(t)
		mock.ExpectExec("INSERT INTO exercise_attempts").
			WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

		err := s.Create(context.Background(), validAttempt())
		assert.ErrorIs(t, err, store.ErrAttemptExists)
		assert.True(t, store.IsDuplicateError(err))
	})

	t.Run("invalid attempt", func(t *testing.T) {
		s, mock := newAttemptStore(t)
		a := validAttempt()
		a.UserID = ""

		err := s.Create(context.Background(), a)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrEmptyUserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresAttemptStore_ListRecent(t *testing.T) {
	t.Run("scans rows newest first", func(t *testing.T) {
		s, mock := newAttemptStore(t)
		id1, id2 := uuid.New(), uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM exercise_attempts (.+) ORDER BY attempted_at DESC").
			WithArgs("user-1", "es", 20).
			WillReturnRows(sqlmock.NewRows(attemptColumns).
				AddRow(id2.String(), "user-1", "es", "ex-2", false, 31.0, nil, fixedNow).
				AddRow(id1.String(), "user-1", "es", "ex-1", true, 4.0, int64(2), fixedNow.Add(-1)))

		attempts, err := s.ListRecent(context.Background(), "user-1", "es", 20)
		require.NoError(t, err)
		require.Len(t, attempts, 2)
		assert.Equal(t, id2, attempts[0].ID)
		assert.False(t, attempts[0].Correct)
		assert.Nil(t, attempts[0].Difficulty)
		require.NotNil(t, attempts[1].Difficulty)
		assert.Equal(t, 2, *attempts[1].Difficulty)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		s, mock := newAttemptStore(t)
		mock.ExpectQuery("SELECT (.+) FROM exercise_attempts").
			WillReturnRows(sqlmock.NewRows(attemptColumns))

		attempts, err := s.ListRecent(context.Background(), "user-1", "es", 5)
		require.NoError(t, err)
		assert.NotNil(t, attempts)
		assert.Empty(t, attempts)
	})

	t.Run("non-positive limit skips the query", func(t *testing.T) {
		s, mock := newAttemptStore(t)
		attempts, err := s.ListRecent(context.Background(), "user-1", "es", 0)
		require.NoError(t, err)
		assert.Empty(t, attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row error", func(t *testing.T) {
		s, mock := newAttemptStore(t)
		mock.ExpectQuery("SELECT (.+) FROM exercise_attempts").
			WillReturnRows(sqlmock.NewRows(attemptColumns).
				AddRow(uuid.New().String(), "user-1", "es", "ex-1", true, 4.0, nil, fixedNow).
				RowError(0, assert.AnError))

		_, err := s.ListRecent(context.Background(), "user-1", "es", 5)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
