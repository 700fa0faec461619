package adaptive

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/adaptive-api/internal/domain"
)

// Common errors
var (
	ErrInvalidStats = errors.New("invalid user stats")
)

// Service defines the interface for difficulty decisions
type Service interface {
	// CalculateNextDifficulty decides the next difficulty from a history
	// window ordered oldest to newest. The caller chooses the window size.
	CalculateNextDifficulty(
		userID string,
		stats domain.UserStats,
		history []domain.ExerciseAttempt,
		currentDifficulty int,
		now time.Time,
	) (*domain.AdaptiveDecision, error)

	// Params returns the parameters the service decides with.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params    *Params
	predictor DifficultyPredictor
}

// NewDefaultService creates a new engine with default parameters and no predictor
func NewDefaultService() Service {
	return NewServiceWithPredictor(NewDefaultParams(), nil)
}

// NewServiceWithParams creates a new engine with custom parameters
func NewServiceWithParams(params *Params) Service {
	return NewServiceWithPredictor(params, nil)
}

// NewServiceWithPredictor creates a new engine that consults predictor once
// per decision. A nil predictor never answers.
func NewServiceWithPredictor(params *Params, predictor DifficultyPredictor) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	if predictor == nil {
		predictor = NoopPredictor{}
	}
	return &defaultService{
		params:    params,
		predictor: predictor,
	}
}

// Params implements Service.
func (s *defaultService) Params() Params {
	return *s.params
}

// CalculateNextDifficulty implements the Service interface.
//
// An out-of-range currentDifficulty is clamped into the configured range
// before the rules run, so the reported current and next values always
// satisfy the one-level safety bound.
func (s *defaultService) CalculateNextDifficulty(
	userID string,
	stats domain.UserStats,
	history []domain.ExerciseAttempt,
	currentDifficulty int,
	now time.Time,
) (*domain.AdaptiveDecision, error) {
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStats, err)
	}

	current := domain.ClampDifficulty(currentDifficulty, s.params.MinDifficulty, s.params.MaxDifficulty)

	if len(history) == 0 {
		return &domain.AdaptiveDecision{
			UserID:            userID,
			CurrentDifficulty: current,
			NextDifficulty:    current,
			MasteryScore:      NeutralMasteryScore,
			Reason:            noHistoryReason,
			Timestamp:         now,
		}, nil
	}

	summary := Summarize(history)
	adj := domain.DifficultyAdjustments{
		Consistency: consistencyAdjustment(history, s.params),
		ErrorRate:   errorRateAdjustment(summary, s.params),
		Speed:       speedAdjustment(summary, s.params),
	}

	next := domain.ClampDifficulty(current+clampDelta(adj.Sum()), s.params.MinDifficulty, s.params.MaxDifficulty)
	mastery := masteryScore(summary, stats, s.params)
	reason := composeReason(adj, s.params)

	decision := &domain.AdaptiveDecision{
		UserID:            userID,
		CurrentDifficulty: current,
		NextDifficulty:    next,
		MasteryScore:      mastery,
		Reason:            reason,
		Adjustments:       adj,
		Timestamp:         now,
	}

	if prediction, ok := s.predictor.Predict(NewFeatures(current, stats, summary, mastery)); ok {
		decision.ModelUsed = true
		decision.ModelPrediction = &prediction
		decision.NextDifficulty = boundPrediction(prediction, current, s.params)
		decision.Reason = fmt.Sprintf("model prediction (rules suggest: %s)", reason)
	}

	return decision, nil
}
