package difficulty

import (
	"context"
	"sync"

	"github.com/phrazzld/adaptive-api/internal/domain"
)

// MockService implements Service for handler tests.
type MockService struct {
	// Custom behavior functions
	NextDifficultyFn func(ctx context.Context, req NextDifficultyRequest) (*domain.AdaptiveDecision, error)
	RecordAttemptFn  func(ctx context.Context, req RecordAttemptRequest) (*domain.ExerciseAttempt, error)
	ListDecisionsFn  func(ctx context.Context, limit int) ([]domain.DecisionLog, error)

	// Default response values
	Decision *domain.AdaptiveDecision
	Attempt  *domain.ExerciseAttempt
	Logs     []domain.DecisionLog
	Err      error

	mu                  sync.Mutex
	NextDifficultyCalls []NextDifficultyRequest
	RecordAttemptCalls  []RecordAttemptRequest
}

var _ Service = (*MockService)(nil)

// NextDifficulty implements Service.
func (m *MockService) NextDifficulty(ctx context.Context, req NextDifficultyRequest) (*domain.AdaptiveDecision, error) {
	m.mu.Lock()
	m.NextDifficultyCalls = append(m.NextDifficultyCalls, req)
	m.mu.Unlock()

	if m.NextDifficultyFn != nil {
		return m.NextDifficultyFn(ctx, req)
	}
	return m.Decision, m.Err
}

// RecordAttempt implements Service.
func (m *MockService) RecordAttempt(ctx context.Context, req RecordAttemptRequest) (*domain.ExerciseAttempt, error) {
	m.mu.Lock()
	m.RecordAttemptCalls = append(m.RecordAttemptCalls, req)
	m.mu.Unlock()

	if m.RecordAttemptFn != nil {
		return m.RecordAttemptFn(ctx, req)
	}
	return m.Attempt, m.Err
}

// ListDecisions implements Service.
func (m *MockService) ListDecisions(ctx context.Context, limit int) ([]domain.DecisionLog, error) {
	if m.ListDecisionsFn != nil {
		return m.ListDecisionsFn(ctx, limit)
	}
	return m.Logs, m.Err
}
