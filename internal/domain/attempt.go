package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Representable difficulty range. Engine parameters may narrow it but never widen it.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// ExerciseAttempt is one entry of a user's exercise history.
// The engine reads only Correct, TimeSpentSeconds and Difficulty; the
// remaining fields identify the attempt for storage.
type ExerciseAttempt struct {
	ID               uuid.UUID `json:"id"`
	UserID           string    `json:"user_id"`
	LearningLanguage string    `json:"learning_language"`
	ExerciseID       string    `json:"exercise_id"`
	Correct          bool      `json:"correct"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`
	Difficulty       *int      `json:"difficulty,omitempty"`
	AttemptedAt      time.Time `json:"attempted_at"`
}

// AttemptInput is the loosely populated form of an attempt as it arrives
// from a client or an offline file. Every field the engine consumes is
// optional here; Normalize applies the defaulting rules once.
type AttemptInput struct {
	ExerciseID       string     `json:"exerciseId"`
	Correct          *bool      `json:"correct"`
	TimeSpentSeconds *float64   `json:"timeSpent"`
	Difficulty       *int       `json:"difficulty"`
	AttemptedAt      *time.Time `json:"timestamp"`
}

// Normalize converts the input into an ExerciseAttempt.
//
// Defaulting rules:
//   - missing Correct is treated as false
//   - missing, negative, NaN or infinite TimeSpentSeconds becomes 0
//   - Difficulty, when present, is clamped into [MinDifficulty, MaxDifficulty]
//   - missing AttemptedAt is left as the zero time
func (in AttemptInput) Normalize() ExerciseAttempt {
	attempt := ExerciseAttempt{
		ExerciseID: in.ExerciseID,
	}

	if in.Correct != nil {
		attempt.Correct = *in.Correct
	}

	if in.TimeSpentSeconds != nil {
		attempt.TimeSpentSeconds = sanitizeSeconds(*in.TimeSpentSeconds)
	}

	if in.Difficulty != nil {
		d := ClampDifficulty(*in.Difficulty, MinDifficulty, MaxDifficulty)
		attempt.Difficulty = &d
	}

	if in.AttemptedAt != nil {
		attempt.AttemptedAt = in.AttemptedAt.UTC()
	}

	return attempt
}

// NormalizeAll normalizes a batch of inputs preserving their order.
func NormalizeAll(inputs []AttemptInput) []ExerciseAttempt {
	attempts := make([]ExerciseAttempt, 0, len(inputs))
	for _, in := range inputs {
		attempts = append(attempts, in.Normalize())
	}
	return attempts
}

// Validate checks the identifying fields of a stored attempt.
func (a *ExerciseAttempt) Validate() error {
	if a.UserID == "" {
		return ErrEmptyUserID
	}
	if err := ValidateLearningLanguage(a.LearningLanguage); err != nil {
		return err
	}
	if a.TimeSpentSeconds < 0 || math.IsNaN(a.TimeSpentSeconds) {
		return fmt.Errorf("%w: time spent must be non-negative", ErrValidation)
	}
	if a.Difficulty != nil && (*a.Difficulty < MinDifficulty || *a.Difficulty > MaxDifficulty) {
		return ErrInvalidDifficulty
	}
	return nil
}

// ValidateLearningLanguage checks that a language code is 2 to 10 characters.
func ValidateLearningLanguage(lang string) error {
	if len(lang) < 2 || len(lang) > 10 {
		return ErrInvalidLearningLanguage
	}
	return nil
}

// ClampDifficulty bounds a difficulty level to [lo, hi].
func ClampDifficulty(d, lo, hi int) int {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func sanitizeSeconds(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return 0
	}
	return s
}
