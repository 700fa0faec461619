package adaptive

import "github.com/phrazzld/adaptive-api/internal/domain"

// defaultAvgResponseTime stands in for the average response time when a
// window carries no timing data.
const defaultAvgResponseTime = 15.0

// Features is the input vector offered to a DifficultyPredictor.
type Features struct {
	CurrentDifficulty  int
	XP                 int
	Level              int
	RecentAccuracy     float64
	AvgResponseTime    float64
	ConsecutiveCorrect int
	ErrorRate          float64
	MasteryScore       float64
}

// Vector returns the features in a fixed order for model consumption.
func (f Features) Vector() []float64 {
	return []float64{
		float64(f.CurrentDifficulty),
		float64(f.XP),
		float64(f.Level),
		f.RecentAccuracy,
		f.AvgResponseTime,
		float64(f.ConsecutiveCorrect),
		f.ErrorRate,
		f.MasteryScore,
	}
}

// NewFeatures builds the feature vector for one decision.
func NewFeatures(current int, stats domain.UserStats, s Summary, mastery float64) Features {
	avg := defaultAvgResponseTime
	if s.HasTimeData() {
		avg = s.AvgTimeSpent
	}

	return Features{
		CurrentDifficulty:  current,
		XP:                 stats.XP,
		Level:              stats.Level,
		RecentAccuracy:     s.Accuracy,
		AvgResponseTime:    avg,
		ConsecutiveCorrect: s.TrailingCorrect,
		ErrorRate:          s.ErrorRate,
		MasteryScore:       mastery,
	}
}

// DifficultyPredictor proposes a next difficulty from a feature vector.
// Implementations must be safe for concurrent use. The second return value
// is false when the predictor has no opinion.
type DifficultyPredictor interface {
	Predict(features Features) (int, bool)
}

// PredictorFunc adapts an ordinary function to the DifficultyPredictor interface.
type PredictorFunc func(features Features) (int, bool)

// Predict calls f(features).
func (f PredictorFunc) Predict(features Features) (int, bool) {
	return f(features)
}

// NoopPredictor never predicts, leaving every decision to the rules.
type NoopPredictor struct{}

// Predict implements DifficultyPredictor.
func (NoopPredictor) Predict(Features) (int, bool) {
	return 0, false
}

// boundPrediction keeps a model proposal inside the safety clamp around current.
func boundPrediction(prediction, current int, params *Params) int {
	bounded := domain.ClampDifficulty(prediction, current-1, current+1)
	return domain.ClampDifficulty(bounded, params.MinDifficulty, params.MaxDifficulty)
}
