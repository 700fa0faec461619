package adaptive

import "github.com/phrazzld/adaptive-api/internal/domain"

// Summary aggregates the performance signals of a history window.
// Times that are zero or missing are excluded from AvgTimeSpent.
type Summary struct {
	Attempts        int
	CorrectCount    int
	Accuracy        float64
	ErrorRate       float64
	AvgTimeSpent    float64
	TimedAttempts   int
	TrailingCorrect int
	Transitions     int
	LastCorrect     bool
}

// HasTimeData reports whether at least one attempt carried a positive response time.
func (s Summary) HasTimeData() bool {
	return s.TimedAttempts > 0
}

// Summarize computes the aggregate signals for history, ordered oldest to newest.
// An empty history yields the zero Summary.
func Summarize(history []domain.ExerciseAttempt) Summary {
	var s Summary
	s.Attempts = len(history)
	if s.Attempts == 0 {
		return s
	}

	var totalTime float64
	for i, attempt := range history {
		if attempt.Correct {
			s.CorrectCount++
		}
		if attempt.TimeSpentSeconds > 0 {
			totalTime += attempt.TimeSpentSeconds
			s.TimedAttempts++
		}
		if i > 0 && attempt.Correct != history[i-1].Correct {
			s.Transitions++
		}
	}

	for i := len(history) - 1; i >= 0 && history[i].Correct; i-- {
		s.TrailingCorrect++
	}

	s.Accuracy = float64(s.CorrectCount) / float64(s.Attempts)
	s.ErrorRate = 1 - s.Accuracy
	if s.TimedAttempts > 0 {
		s.AvgTimeSpent = totalTime / float64(s.TimedAttempts)
	}
	s.LastCorrect = history[len(history)-1].Correct

	return s
}
