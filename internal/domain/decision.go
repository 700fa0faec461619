package domain

import (
	"fmt"
	"time"
)

// DifficultyAdjustments holds each rule's vote, always one of -1, 0 or +1.
type DifficultyAdjustments struct {
	Consistency int `json:"consistency"`
	ErrorRate   int `json:"error_rate"`
	Speed       int `json:"speed"`
}

// Sum returns the raw delta before the safety clamp.
func (a DifficultyAdjustments) Sum() int {
	return a.Consistency + a.ErrorRate + a.Speed
}

// AdaptiveDecision is the engine's output for one invocation.
type AdaptiveDecision struct {
	UserID            string                `json:"user_id"`
	CurrentDifficulty int                   `json:"current_difficulty"`
	NextDifficulty    int                   `json:"next_difficulty"`
	MasteryScore      float64               `json:"mastery_score"`
	Reason            string                `json:"reason"`
	ModelUsed         bool                  `json:"model_used"`
	ModelPrediction   *int                  `json:"model_prediction,omitempty"`
	Adjustments       DifficultyAdjustments `json:"adjustments"`
	Timestamp         time.Time             `json:"timestamp"`
}

// Validate checks the range invariants every decision must hold.
func (d *AdaptiveDecision) Validate() error {
	if d.UserID == "" {
		return ErrEmptyUserID
	}
	if d.CurrentDifficulty < MinDifficulty || d.CurrentDifficulty > MaxDifficulty ||
		d.NextDifficulty < MinDifficulty || d.NextDifficulty > MaxDifficulty {
		return ErrInvalidDifficulty
	}
	if step := d.NextDifficulty - d.CurrentDifficulty; step > 1 || step < -1 {
		return fmt.Errorf("%w: difficulty moved by %d levels", ErrValidation, step)
	}
	if d.MasteryScore < 0 || d.MasteryScore > 1 {
		return ErrInvalidMasteryScore
	}
	return nil
}

// DecisionLog is the append-only audit record of a decision, kept as
// training data. ID is assigned by storage.
type DecisionLog struct {
	ID int64 `json:"id"`
	AdaptiveDecision

	LearningLanguage string `json:"learning_language"`
	ExerciseType     string `json:"exercise_type"`

	// Feature snapshot at decision time. Nil when the history was empty.
	AvgTimeSpent *float64 `json:"avg_time_spent,omitempty"`
	LastCorrect  *bool    `json:"last_correct,omitempty"`
	ErrorRate    *float64 `json:"error_rate,omitempty"`
}

// Validate checks the decision and the log context.
func (l *DecisionLog) Validate() error {
	if err := l.AdaptiveDecision.Validate(); err != nil {
		return err
	}
	if err := ValidateLearningLanguage(l.LearningLanguage); err != nil {
		return err
	}
	if l.ExerciseType == "" {
		return fmt.Errorf("%w: exercise type cannot be empty", ErrValidation)
	}
	return nil
}
