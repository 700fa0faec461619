package adaptive

import (
	"time"

	"github.com/phrazzld/adaptive-api/internal/domain"
)

// Params defines all configurable parameters for the difficulty engine
type Params struct {
	// Difficulty range
	MinDifficulty int
	MaxDifficulty int

	// Consistency rule: number of trailing attempts that must agree
	ConsecutiveCorrectThreshold int

	// Error-rate rule
	ErrorRateThresholdHigh float64
	ErrorRateThresholdLow  float64

	// Speed rule
	FastResponseTime  time.Duration
	SlowResponseTime  time.Duration
	AccuracyThreshold float64

	// Mastery score blend
	AccuracyWeight    float64
	SpeedWeight       float64
	ConsistencyWeight float64
	StandingWeight    float64
	XPSaturation      float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinDifficulty int
	MaxDifficulty int

	ConsecutiveCorrectThreshold int

	ErrorRateThresholdHigh float64
	ErrorRateThresholdLow  float64

	FastResponseTime  time.Duration
	SlowResponseTime  time.Duration
	AccuracyThreshold float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinDifficulty: domain.MinDifficulty,
		MaxDifficulty: domain.MaxDifficulty,

		ConsecutiveCorrectThreshold: 3,

		ErrorRateThresholdHigh: 0.5,
		ErrorRateThresholdLow:  0.25,

		FastResponseTime:  5 * time.Second,
		SlowResponseTime:  30 * time.Second,
		AccuracyThreshold: 0.75,

		// Weights sum to 1 so the blend stays within [0,1]
		AccuracyWeight:    0.45,
		SpeedWeight:       0.30,
		ConsistencyWeight: 0.15,
		StandingWeight:    0.10,
		XPSaturation:      1000,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero values keep the default. Difficulty bounds outside the representable
// range and inverted thresholds are ignored.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinDifficulty >= domain.MinDifficulty && config.MinDifficulty <= domain.MaxDifficulty {
		params.MinDifficulty = config.MinDifficulty
	}
	if config.MaxDifficulty >= domain.MinDifficulty && config.MaxDifficulty <= domain.MaxDifficulty {
		params.MaxDifficulty = config.MaxDifficulty
	}
	if params.MinDifficulty > params.MaxDifficulty {
		params.MinDifficulty = domain.MinDifficulty
		params.MaxDifficulty = domain.MaxDifficulty
	}

	if config.ConsecutiveCorrectThreshold > 0 {
		params.ConsecutiveCorrectThreshold = config.ConsecutiveCorrectThreshold
	}

	if config.ErrorRateThresholdHigh > 0 && config.ErrorRateThresholdHigh <= 1 {
		params.ErrorRateThresholdHigh = config.ErrorRateThresholdHigh
	}
	if config.ErrorRateThresholdLow > 0 && config.ErrorRateThresholdLow < params.ErrorRateThresholdHigh {
		params.ErrorRateThresholdLow = config.ErrorRateThresholdLow
	}

	if config.FastResponseTime > 0 {
		params.FastResponseTime = config.FastResponseTime
	}
	if config.SlowResponseTime > params.FastResponseTime {
		params.SlowResponseTime = config.SlowResponseTime
	}
	if params.SlowResponseTime <= params.FastResponseTime {
		params.SlowResponseTime = params.FastResponseTime * 6
	}

	if config.AccuracyThreshold > 0 && config.AccuracyThreshold <= 1 {
		params.AccuracyThreshold = config.AccuracyThreshold
	}

	return params
}
