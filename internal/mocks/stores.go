package mocks

import (
	"context"
	"database/sql"

	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TxArg is recorded in place of the *sql.Tx passed to WithTx. database/sql
// keeps writing to a transaction after Commit, so recorded calls must not
// hold the live value that testify formats when matching arguments.
type TxArg struct {
	Present bool
}

func txArg(tx *sql.Tx) TxArg {
	return TxArg{Present: tx != nil}
}

// TestifyMockUserStatsStore is a mock of store.UserStatsStore for use with testify/mock
type TestifyMockUserStatsStore struct {
	mock.Mock
}

var _ store.UserStatsStore = (*TestifyMockUserStatsStore)(nil)

// Get is a mock implementation of store.UserStatsStore.Get
func (m *TestifyMockUserStatsStore) Get(ctx context.Context, userID, learningLanguage string) (*domain.UserStats, error) {
	args := m.Called(ctx, userID, learningLanguage)
	if stats, ok := args.Get(0).(*domain.UserStats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}

// Upsert is a mock implementation of store.UserStatsStore.Upsert
func (m *TestifyMockUserStatsStore) Upsert(ctx context.Context, stats *domain.UserStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

// IncrementExercisesCompleted is a mock implementation of store.UserStatsStore.IncrementExercisesCompleted
func (m *TestifyMockUserStatsStore) IncrementExercisesCompleted(ctx context.Context, userID, learningLanguage string) error {
	args := m.Called(ctx, userID, learningLanguage)
	return args.Error(0)
}

// WithTx is a mock implementation of store.UserStatsStore.WithTx
func (m *TestifyMockUserStatsStore) WithTx(tx *sql.Tx) store.UserStatsStore {
	args := m.Called(txArg(tx))
	if ret, ok := args.Get(0).(store.UserStatsStore); ok {
		return ret
	}
	return m
}

// TestifyMockAttemptStore is a mock of store.AttemptStore for use with testify/mock
type TestifyMockAttemptStore struct {
	mock.Mock
}

var _ store.AttemptStore = (*TestifyMockAttemptStore)(nil)

// Create is a mock implementation of store.AttemptStore.Create
func (m *TestifyMockAttemptStore) Create(ctx context.Context, attempt *domain.ExerciseAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

// ListRecent is a mock implementation of store.AttemptStore.ListRecent
func (m *TestifyMockAttemptStore) ListRecent(
	ctx context.Context,
	userID, learningLanguage string,
	limit int,
) ([]domain.ExerciseAttempt, error) {
	args := m.Called(ctx, userID, learningLanguage, limit)
	if attempts, ok := args.Get(0).([]domain.ExerciseAttempt); ok {
		return attempts, args.Error(1)
	}
	return nil, args.Error(1)
}

// WithTx is a mock implementation of store.AttemptStore.WithTx
func (m *TestifyMockAttemptStore) WithTx(tx *sql.Tx) store.AttemptStore {
	args := m.Called(txArg(tx))
	if ret, ok := args.Get(0).(store.AttemptStore); ok {
		return ret
	}
	return m
}

// TestifyMockDecisionStore is a mock of store.DecisionStore for use with testify/mock
type TestifyMockDecisionStore struct {
	mock.Mock
}

var _ store.DecisionStore = (*TestifyMockDecisionStore)(nil)

// Create is a mock implementation of store.DecisionStore.Create
func (m *TestifyMockDecisionStore) Create(ctx context.Context, log *domain.DecisionLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

// List is a mock implementation of store.DecisionStore.List
func (m *TestifyMockDecisionStore) List(ctx context.Context, limit int) ([]domain.DecisionLog, error) {
	args := m.Called(ctx, limit)
	if logs, ok := args.Get(0).([]domain.DecisionLog); ok {
		return logs, args.Error(1)
	}
	return nil, args.Error(1)
}
