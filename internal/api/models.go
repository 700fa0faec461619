package api

import (
	"time"

	"github.com/phrazzld/adaptive-api/internal/domain"
)

// NextDifficultyRequest is the body of POST /adaptive/api/v1/next-difficulty.
type NextDifficultyRequest struct {
	UserID            string `json:"user_id"            validate:"required"`
	LearningLanguage  string `json:"learning_language"  validate:"required,min=2,max=10"`
	ExerciseType      string `json:"exercise_type"      validate:"omitempty,max=50"`
	CurrentDifficulty *int   `json:"current_difficulty" validate:"omitempty,min=1,max=5"`
}

// AdjustmentsResponse reports each rule's vote.
type AdjustmentsResponse struct {
	Consistency int `json:"consistency"`
	ErrorRate   int `json:"errorRate"`
	Speed       int `json:"speed"`
}

// NextDifficultyResponse is the decision returned to clients.
type NextDifficultyResponse struct {
	UserID            string              `json:"user_id"`
	CurrentDifficulty int                 `json:"currentDifficulty"`
	NextDifficulty    int                 `json:"nextDifficulty"`
	MasteryScore      float64             `json:"masteryScore"`
	Reason            string              `json:"reason"`
	ModelUsed         bool                `json:"modelUsed"`
	Adjustments       AdjustmentsResponse `json:"adjustments"`
	Timestamp         time.Time           `json:"timestamp"`
}

// AttemptRequest is the body of POST /adaptive/api/v1/attempts.
type AttemptRequest struct {
	UserID           string   `json:"user_id"           validate:"required"`
	LearningLanguage string   `json:"learning_language" validate:"required,min=2,max=10"`
	ExerciseID       string   `json:"exercise_id"       validate:"omitempty,max=100"`
	Correct          *bool    `json:"correct"`
	TimeSpentSeconds *float64 `json:"time_spent"`
	Difficulty       *int     `json:"difficulty"`
}

// AttemptResponse echoes a stored attempt.
type AttemptResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	LearningLanguage string    `json:"learning_language"`
	ExerciseID       string    `json:"exercise_id,omitempty"`
	Correct          bool      `json:"correct"`
	TimeSpentSeconds float64   `json:"time_spent"`
	Difficulty       *int      `json:"difficulty,omitempty"`
	AttemptedAt      time.Time `json:"attempted_at"`
}

// DecisionLogResponse is one row of the training dataset.
type DecisionLogResponse struct {
	ID int64 `json:"id"`
	NextDifficultyResponse
	LearningLanguage string   `json:"learning_language"`
	ExerciseType     string   `json:"exercise_type"`
	ModelPrediction  *int     `json:"model_prediction,omitempty"`
	AvgTimeSpent     *float64 `json:"avg_time_spent,omitempty"`
	LastCorrect      *bool    `json:"last_correct,omitempty"`
	ErrorRate        *float64 `json:"error_rate,omitempty"`
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status           string    `json:"status"`
	Service          string    `json:"service"`
	Version          string    `json:"version"`
	MLModelAvailable bool      `json:"ml_model_available"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewNextDifficultyResponse maps a decision to its wire form.
func NewNextDifficultyResponse(d *domain.AdaptiveDecision) NextDifficultyResponse {
	return NextDifficultyResponse{
		UserID:            d.UserID,
		CurrentDifficulty: d.CurrentDifficulty,
		NextDifficulty:    d.NextDifficulty,
		MasteryScore:      d.MasteryScore,
		Reason:            d.Reason,
		ModelUsed:         d.ModelUsed,
		Adjustments: AdjustmentsResponse{
			Consistency: d.Adjustments.Consistency,
			ErrorRate:   d.Adjustments.ErrorRate,
			Speed:       d.Adjustments.Speed,
		},
		Timestamp: d.Timestamp,
	}
}

func attemptToResponse(a *domain.ExerciseAttempt) AttemptResponse {
	return AttemptResponse{
		ID:               a.ID.String(),
		UserID:           a.UserID,
		LearningLanguage: a.LearningLanguage,
		ExerciseID:       a.ExerciseID,
		Correct:          a.Correct,
		TimeSpentSeconds: a.TimeSpentSeconds,
		Difficulty:       a.Difficulty,
		AttemptedAt:      a.AttemptedAt,
	}
}

func decisionLogToResponse(l domain.DecisionLog) DecisionLogResponse {
	return DecisionLogResponse{
		ID:                     l.ID,
		NextDifficultyResponse: NewNextDifficultyResponse(&l.AdaptiveDecision),
		LearningLanguage:       l.LearningLanguage,
		ExerciseType:           l.ExerciseType,
		ModelPrediction:        l.ModelPrediction,
		AvgTimeSpent:           l.AvgTimeSpent,
		LastCorrect:            l.LastCorrect,
		ErrorRate:              l.ErrorRate,
	}
}
