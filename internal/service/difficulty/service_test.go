package difficulty

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/domain/adaptive"
	"github.com/phrazzld/adaptive-api/internal/mocks"
	"github.com/phrazzld/adaptive-api/internal/platform/logger"
	"github.com/phrazzld/adaptive-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

// captureRecorder collects recorded entries.
type captureRecorder struct {
	mu      sync.Mutex
	entries []domain.DecisionLog
	err     error
}

func (r *captureRecorder) Record(ctx context.Context, entry domain.DecisionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

type fixture struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	stats     *mocks.TestifyMockUserStatsStore
	attempts  *mocks.TestifyMockAttemptStore
	decisions *mocks.TestifyMockDecisionStore
	recorder  *captureRecorder
	svc       Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		db:        db,
		sqlMock:   sqlMock,
		stats:     new(mocks.TestifyMockUserStatsStore),
		attempts:  new(mocks.TestifyMockAttemptStore),
		decisions: new(mocks.TestifyMockDecisionStore),
		recorder:  &captureRecorder{},
	}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	f.svc = NewService(db, f.stats, f.attempts, f.decisions, adaptive.NewDefaultService(), f.recorder, nil, opts...)
	return f
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

// newestFirst builds a store result from outcomes listed oldest to newest.
func newestFirst(outcomes []bool, seconds float64, difficulty *int) []domain.ExerciseAttempt {
	out := make([]domain.ExerciseAttempt, len(outcomes))
	for i, correct := range outcomes {
		out[len(outcomes)-1-i] = domain.ExerciseAttempt{
			UserID:           "user-1",
			LearningLanguage: "es",
			Correct:          correct,
			TimeSpentSeconds: seconds,
			Difficulty:       difficulty,
			AttemptedAt:      testNow.Add(time.Duration(i-len(outcomes)) * time.Minute),
		}
	}
	return out
}

func TestNextDifficulty_PromotesStrongLearner(t *testing.T) {
	f := newFixture(t)
	f.stats.On("Get", mock.Anything, "user-1", "es").
		Return(&domain.UserStats{UserID: "user-1", LearningLanguage: "es", XP: 2000, Level: 5}, nil)
	f.attempts.On("ListRecent", mock.Anything, "user-1", "es", DefaultHistoryWindow).
		Return(newestFirst([]bool{true, true, true, true, true}, 5, intPtr(2)), nil)

	decision, err := f.svc.NextDifficulty(context.Background(), NextDifficultyRequest{
		UserID: "user-1", LearningLanguage: "es",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, decision.CurrentDifficulty, "current difficulty comes from the latest attempt")
	assert.Equal(t, 3, decision.NextDifficulty)
	assert.Equal(t, testNow, decision.Timestamp)
	assert.Equal(t, domain.DifficultyAdjustments{Consistency: 1, ErrorRate: 1, Speed: 1}, decision.Adjustments)

	require.Len(t, f.recorder.entries, 1)
	entry := f.recorder.entries[0]
	assert.Equal(t, "es", entry.LearningLanguage)
	assert.Equal(t, DefaultExerciseType, entry.ExerciseType)
	require.NotNil(t, entry.ErrorRate)
	assert.Equal(t, 0.0, *entry.ErrorRate)
	require.NotNil(t, entry.LastCorrect)
	assert.True(t, *entry.LastCorrect)
	require.NotNil(t, entry.AvgTimeSpent)
	assert.InDelta(t, 5.0, *entry.AvgTimeSpent, 1e-9)
}

func TestNextDifficulty_MissingStatsUseDefaults(t *testing.T) {
	f := newFixture(t)
	f.stats.On("Get", mock.Anything, "new-user", "fr").Return(nil, store.ErrUserStatsNotFound)
	f.attempts.On("ListRecent", mock.Anything, "new-user", "fr", DefaultHistoryWindow).
		Return([]domain.ExerciseAttempt{}, nil)

	decision, err := f.svc.NextDifficulty(context.Background(), NextDifficultyRequest{
		UserID: "new-user", LearningLanguage: "fr", ExerciseType: "listening",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, decision.CurrentDifficulty)
	assert.Equal(t, 1, decision.NextDifficulty)
	assert.Equal(t, 0.5, decision.MasteryScore)
	assert.Equal(t, "no exercise history available", decision.Reason)

	require.Len(t, f.recorder.entries, 1)
	entry := f.recorder.entries[0]
	assert.Equal(t, "listening", entry.ExerciseType)
	assert.Nil(t, entry.ErrorRate)
	assert.Nil(t, entry.LastCorrect)
	assert.Nil(t, entry.AvgTimeSpent)
}

func TestNextDifficulty_RequestedDifficultyWins(t *testing.T) {
	f := newFixture(t)
	f.stats.On("Get", mock.Anything, "user-1", "es").Return(nil, store.ErrUserStatsNotFound)
	f.attempts.On("ListRecent", mock.Anything, "user-1", "es", DefaultHistoryWindow).
		Return(newestFirst([]bool{false, false, false, false}, 40, intPtr(2)), nil)

	decision, err := f.svc.NextDifficulty(context.Background(), NextDifficultyRequest{
		UserID: "user-1", LearningLanguage: "es", CurrentDifficulty: intPtr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, decision.CurrentDifficulty)
	assert.Equal(t, 3, decision.NextDifficulty)
}

func TestNextDifficulty_HistoryOrderReachesEngineOldestFirst(t *testing.T) {
	f := newFixture(t)
	f.stats.On("Get", mock.Anything, "user-1", "es").Return(nil, store.ErrUserStatsNotFound)
	// oldest to newest: three misses followed by three hits
	f.attempts.On("ListRecent", mock.Anything, "user-1", "es", DefaultHistoryWindow).
		Return(newestFirst([]bool{false, false, false, true, true, true}, 0, nil), nil)

	decision, err := f.svc.NextDifficulty(context.Background(), NextDifficultyRequest{
		UserID: "user-1", LearningLanguage: "es", CurrentDifficulty: intPtr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, decision.Adjustments.Consistency)
}

func TestNextDifficulty_HistoryWindowOption(t *testing.T) {
	f := newFixture(t, WithHistoryWindow(7))
	f.stats.On("Get", mock.Anything, "user-1", "es").Return(nil, store.ErrUserStatsNotFound)
	f.attempts.On("ListRecent", mock.Anything, "user-1", "es", 7).Return([]domain.ExerciseAttempt{}, nil)

	_, err := f.svc.NextDifficulty(context.Background(), NextDifficultyRequest{UserID: "user-1", LearningLanguage: "es"})
	require.NoError(t, err)
	f.attempts.AssertExpectations(t)
}

func TestNextDifficulty_RecorderFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("queue full")
	log, buf := logger.NewTestLogger()
	f.svc = NewService(f.db, f.stats, f.attempts, f.decisions, adaptive.NewDefaultService(), f.recorder, log,
		WithClock(func() time.Time { return testNow }))

	f.stats.On("Get", mock.Anything, "user-1", "es").Return(nil, store.ErrUserStatsNotFound)
	f.attempts.On("ListRecent", mock.Anything, "user-1", "es", DefaultHistoryWindow).
		Return([]domain.ExerciseAttempt{}, nil)

	decision, err := f.svc.NextDifficulty(context.Background(), NextDifficultyRequest{UserID: "user-1", LearningLanguage: "es"})
	require.NoError(t, err)
	assert.NotNil(t, decision)

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	var found bool
	for _, entry := range entries {
		if entry["msg"] == "failed to record decision log" {
			found = true
			assert.Equal(t, "ERROR", entry["level"])
			assert.Equal(t, "queue full", entry["error"])
		}
	}
	assert.True(t, found, "recorder failure should be logged")
}

func TestNextDifficulty_CollaboratorFailures(t *testing.T) {
	t.Run("stats store", func(t *testing.T) {
		f := newFixture(t)
		f.stats.On("Get", mock.Anything, "user-1", "es").Return(nil, errors.New("connection refused"))

		_, err := f.svc.NextDifficulty(context.Background(), NextDifficultyRequest{UserID: "user-1", LearningLanguage: "es"})
		assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "next_difficulty", svcErr.Operation)
		assert.Empty(t, f.recorder.entries)
	})

	t.Run("attempt store", func(t *testing.T) {
		f := newFixture(t)
		f.stats.On("Get", mock.Anything, "user-1", "es").Return(nil, store.ErrUserStatsNotFound)
		f.attempts.On("ListRecent", mock.Anything, "user-1", "es", DefaultHistoryWindow).
			Return(nil, errors.New("timeout"))

		_, err := f.svc.NextDifficulty(context.Background(), NextDifficultyRequest{UserID: "user-1", LearningLanguage: "es"})
		assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
	})
}

func TestNextDifficulty_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  NextDifficultyRequest
		want error
	}{
		{"empty user", NextDifficultyRequest{LearningLanguage: "es"}, domain.ErrEmptyUserID},
		{"blank user", NextDifficultyRequest{UserID: "  ", LearningLanguage: "es"}, domain.ErrEmptyUserID},
		{"short language", NextDifficultyRequest{UserID: "u", LearningLanguage: "e"}, domain.ErrInvalidLearningLanguage},
		{"difficulty too high", NextDifficultyRequest{UserID: "u", LearningLanguage: "es", CurrentDifficulty: intPtr(6)}, domain.ErrInvalidDifficulty},
		{"difficulty too low", NextDifficultyRequest{UserID: "u", LearningLanguage: "es", CurrentDifficulty: intPtr(0)}, domain.ErrInvalidDifficulty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.NextDifficulty(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.ErrorIs(t, err, tt.want)
			f.stats.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRecordAttempt(t *testing.T) {
	f := newFixture(t)
	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()

	f.attempts.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.attempts)
	f.stats.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.stats)
	f.attempts.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExerciseAttempt")).Return(nil)
	f.stats.On("IncrementExercisesCompleted", mock.Anything, "user-1", "es").Return(nil)

	attempt, err := f.svc.RecordAttempt(context.Background(), RecordAttemptRequest{
		UserID:           "user-1",
		LearningLanguage: "es",
		ExerciseID:       "ex-9",
		Correct:          boolPtr(true),
		TimeSpentSeconds: floatPtr(-3),
		Difficulty:       intPtr(9),
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, attempt.ID)
	assert.Equal(t, "user-1", attempt.UserID)
	assert.True(t, attempt.Correct)
	assert.Equal(t, 0.0, attempt.TimeSpentSeconds, "negative time is normalised to zero")
	require.NotNil(t, attempt.Difficulty)
	assert.Equal(t, 5, *attempt.Difficulty, "difficulty is clamped")
	assert.Equal(t, testNow, attempt.AttemptedAt)

	// Stores are bound to the transaction without retaining it after commit.
	f.attempts.AssertCalled(t, "WithTx", mocks.TxArg{Present: true})
	f.stats.AssertCalled(t, "WithTx", mocks.TxArg{Present: true})
	f.attempts.AssertExpectations(t)
	f.stats.AssertExpectations(t)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestRecordAttempt_MissingFieldsDefault(t *testing.T) {
	f := newFixture(t)
	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()

	f.attempts.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.attempts)
	f.stats.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.stats)
	f.attempts.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.stats.On("IncrementExercisesCompleted", mock.Anything, "user-1", "es").Return(nil)

	attempt, err := f.svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "user-1", LearningLanguage: "es"})
	require.NoError(t, err)
	assert.False(t, attempt.Correct)
	assert.Equal(t, 0.0, attempt.TimeSpentSeconds)
	assert.Nil(t, attempt.Difficulty)
}

func TestRecordAttempt_RollsBackOnStatsFailure(t *testing.T) {
	f := newFixture(t)
	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectRollback()

	f.attempts.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.attempts)
	f.stats.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.stats)
	f.attempts.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.stats.On("IncrementExercisesCompleted", mock.Anything, "user-1", "es").Return(errors.New("deadlock"))

	_, err := f.svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "user-1", LearningLanguage: "es"})
	assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

// evictingStats is a caching stats store double that records evictions.
type evictingStats struct {
	*mocks.TestifyMockUserStatsStore
	onEvict func()
	evicted []string
}

func (s *evictingStats) Invalidate(ctx context.Context, userID, learningLanguage string) {
	if s.onEvict != nil {
		s.onEvict()
	}
	s.evicted = append(s.evicted, userID+":"+learningLanguage)
}

func TestRecordAttempt_InvalidatesCachedStatsAfterCommit(t *testing.T) {
	f := newFixture(t)
	stats := &evictingStats{TestifyMockUserStatsStore: f.stats}
	stats.onEvict = func() {
		assert.NoError(t, f.sqlMock.ExpectationsWereMet(), "eviction must follow the commit")
	}
	svc := NewService(f.db, stats, f.attempts, f.decisions, adaptive.NewDefaultService(), f.recorder, nil,
		WithClock(func() time.Time { return testNow }))

	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()
	f.attempts.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.attempts)
	f.stats.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.stats)
	f.attempts.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.stats.On("IncrementExercisesCompleted", mock.Anything, "user-1", "es").Return(nil)

	_, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "user-1", LearningLanguage: "es"})
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1:es"}, stats.evicted)
}

func TestRecordAttempt_RollbackKeepsCachedStats(t *testing.T) {
	f := newFixture(t)
	stats := &evictingStats{TestifyMockUserStatsStore: f.stats}
	svc := NewService(f.db, stats, f.attempts, f.decisions, adaptive.NewDefaultService(), f.recorder, nil,
		WithClock(func() time.Time { return testNow }))

	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectRollback()
	f.attempts.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.attempts)
	f.stats.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.stats)
	f.attempts.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.stats.On("IncrementExercisesCompleted", mock.Anything, "user-1", "es").Return(errors.New("deadlock"))

	_, err := svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "user-1", LearningLanguage: "es"})
	assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
	assert.Empty(t, stats.evicted)
}

func TestRecordAttempt_InvalidEntity(t *testing.T) {
	f := newFixture(t)
	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectRollback()

	f.attempts.On("WithTx", mock.AnythingOfType("mocks.TxArg")).Return(f.attempts)
	f.attempts.On("Create", mock.Anything, mock.Anything).Return(store.ErrInvalidEntity)

	_, err := f.svc.RecordAttempt(context.Background(), RecordAttemptRequest{UserID: "user-1", LearningLanguage: "es"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRecordAttempt_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordAttempt(context.Background(), RecordAttemptRequest{LearningLanguage: "es"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestListDecisions(t *testing.T) {
	f := newFixture(t)
	logs := []domain.DecisionLog{{ID: 2}, {ID: 1}}
	f.decisions.On("List", mock.Anything, 50).Return(logs, nil)

	got, err := f.svc.ListDecisions(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, logs, got)

	_, err = f.svc.ListDecisions(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestListDecisions_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.decisions.On("List", mock.Anything, 10).Return(nil, errors.New("down"))

	_, err := f.svc.ListDecisions(context.Background(), 10)
	assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
}

func TestNewService_NilRecorderWritesThroughStore(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	stats := new(mocks.TestifyMockUserStatsStore)
	attempts := new(mocks.TestifyMockAttemptStore)
	decisions := new(mocks.TestifyMockDecisionStore)
	stats.On("Get", mock.Anything, "user-1", "es").Return(nil, store.ErrUserStatsNotFound)
	attempts.On("ListRecent", mock.Anything, "user-1", "es", DefaultHistoryWindow).Return([]domain.ExerciseAttempt{}, nil)
	decisions.On("Create", mock.Anything, mock.AnythingOfType("*domain.DecisionLog")).Return(nil)

	svc := NewService(db, stats, attempts, decisions, nil, nil, nil)
	_, err = svc.NextDifficulty(context.Background(), NextDifficultyRequest{UserID: "user-1", LearningLanguage: "es"})
	require.NoError(t, err)
	decisions.AssertExpectations(t)
}

func TestNewService_Panics(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	stats := new(mocks.TestifyMockUserStatsStore)
	attempts := new(mocks.TestifyMockAttemptStore)
	decisions := new(mocks.TestifyMockDecisionStore)

	assert.Panics(t, func() { NewService(nil, stats, attempts, decisions, nil, nil, nil) })
	assert.Panics(t, func() { NewService(db, nil, attempts, decisions, nil, nil, nil) })
	assert.Panics(t, func() { NewService(db, stats, nil, decisions, nil, nil, nil) })
	assert.Panics(t, func() { NewService(db, stats, attempts, nil, nil, nil, nil) })
}
