package domain

import (
	"errors"
	"time"
)

// Validation errors for UserStats
var (
	ErrNegativeXP     = errors.New("xp must be greater than or equal to 0")
	ErrInvalidLevel   = errors.New("level must be at least 1")
	ErrNegativeCounts = errors.New("completed counts must be greater than or equal to 0")
)

// UserStats is a user's standing in one learning language.
// It is read-only input to the engine.
type UserStats struct {
	UserID             string    `json:"user_id"`
	LearningLanguage   string    `json:"learning_language"`
	XP                 int       `json:"xp"`
	Level              int       `json:"level"`
	ExercisesCompleted int       `json:"exercises_completed"`
	LessonsCompleted   int       `json:"lessons_completed"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultUserStats returns the standing substituted for users without stored stats.
func DefaultUserStats() UserStats {
	return UserStats{
		XP:                 0,
		Level:              1,
		ExercisesCompleted: 0,
		LessonsCompleted:   0,
	}
}

// Validate checks the numeric invariants of UserStats.
// Identifying fields are not checked because defaulted stats carry none.
func (s *UserStats) Validate() error {
	if s.XP < 0 {
		return ErrNegativeXP
	}
	if s.Level < 1 {
		return ErrInvalidLevel
	}
	if s.ExercisesCompleted < 0 || s.LessonsCompleted < 0 {
		return ErrNegativeCounts
	}
	return nil
}
