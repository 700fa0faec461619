package adaptive

import "github.com/phrazzld/adaptive-api/internal/domain"

// attempt builds a history entry with a response time in seconds.
func attempt(correct bool, seconds float64) domain.ExerciseAttempt {
	return domain.ExerciseAttempt{Correct: correct, TimeSpentSeconds: seconds}
}

// outcomes builds a history from correctness flags with a neutral response time.
func outcomes(flags ...bool) []domain.ExerciseAttempt {
	history := make([]domain.ExerciseAttempt, 0, len(flags))
	for _, f := range flags {
		history = append(history, attempt(f, 10))
	}
	return history
}
