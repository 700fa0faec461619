package adaptive

import (
	"fmt"
	"math"
	"strings"

	"github.com/phrazzld/adaptive-api/internal/domain"
)

// NeutralMasteryScore is reported when there is no history to score.
const NeutralMasteryScore = 0.5

const (
	noHistoryReason = "no exercise history available"
	stableReason    = "stable performance"
)

// consistencyAdjustment votes on the trailing attempts of the window.
//
// It looks at the last params.ConsecutiveCorrectThreshold entries of the
// slice it receives. When all of them are correct the vote is +1, when all
// are incorrect it is -1, otherwise 0. A window shorter than the threshold
// cannot establish consistency and votes 0.
func consistencyAdjustment(history []domain.ExerciseAttempt, params *Params) int {
	n := params.ConsecutiveCorrectThreshold
	if len(history) < n || n <= 0 {
		return 0
	}

	tail := history[len(history)-n:]
	correct := 0
	for _, attempt := range tail {
		if attempt.Correct {
			correct++
		}
	}

	switch correct {
	case n:
		return 1
	case 0:
		return -1
	default:
		return 0
	}
}

// errorRateAdjustment votes on the share of incorrect answers over the whole window.
// A rate strictly above the high threshold votes -1, strictly below the low
// threshold votes +1.
func errorRateAdjustment(s Summary, params *Params) int {
	if s.Attempts == 0 {
		return 0
	}
	if s.ErrorRate > params.ErrorRateThresholdHigh {
		return -1
	}
	if s.ErrorRate < params.ErrorRateThresholdLow {
		return 1
	}
	return 0
}

// speedAdjustment votes on average response time.
//
// Fast and accurate windows vote +1. Slow windows vote -1 whatever the
// accuracy. Windows without any positive response time vote 0.
func speedAdjustment(s Summary, params *Params) int {
	if !s.HasTimeData() {
		return 0
	}

	if s.AvgTimeSpent >= params.SlowResponseTime.Seconds() {
		return -1
	}
	if s.AvgTimeSpent <= params.FastResponseTime.Seconds() && s.Accuracy >= params.AccuracyThreshold {
		return 1
	}
	return 0
}

// clampDelta applies the safety rule: any number of agreeing votes moves
// difficulty by at most one level.
func clampDelta(raw int) int {
	switch {
	case raw > 0:
		return 1
	case raw < 0:
		return -1
	default:
		return 0
	}
}

// masteryScore blends recent performance with standing into [0,1].
//
// Components:
//   - accuracy over the window
//   - speed: 1 at or under the fast threshold, falling linearly to 0 at the
//     slow threshold; 0.5 when no response times were recorded
//   - stability: 1 minus the share of correct/incorrect flips; 0.5 below two attempts
//   - standing: xp / (xp + XPSaturation), bounded below 1
//
// The result is rounded to two decimals.
func masteryScore(s Summary, stats domain.UserStats, params *Params) float64 {
	if s.Attempts == 0 {
		return NeutralMasteryScore
	}

	score := params.AccuracyWeight*s.Accuracy +
		params.SpeedWeight*speedComponent(s, params) +
		params.ConsistencyWeight*stabilityComponent(s) +
		params.StandingWeight*standingComponent(stats, params)

	score = math.Max(0, math.Min(1, score))
	return math.Round(score*100) / 100
}

func speedComponent(s Summary, params *Params) float64 {
	if !s.HasTimeData() {
		return 0.5
	}

	fast := params.FastResponseTime.Seconds()
	slow := params.SlowResponseTime.Seconds()
	switch {
	case s.AvgTimeSpent <= fast:
		return 1
	case s.AvgTimeSpent >= slow:
		return 0
	default:
		return (slow - s.AvgTimeSpent) / (slow - fast)
	}
}

func stabilityComponent(s Summary) float64 {
	if s.Attempts < 2 {
		return 0.5
	}
	return 1 - float64(s.Transitions)/float64(s.Attempts-1)
}

func standingComponent(stats domain.UserStats, params *Params) float64 {
	if stats.XP <= 0 || params.XPSaturation <= 0 {
		return 0
	}
	xp := float64(stats.XP)
	return xp / (xp + params.XPSaturation)
}

// composeReason names the rules that voted, in rule order.
func composeReason(adj domain.DifficultyAdjustments, params *Params) string {
	var parts []string

	switch adj.Consistency {
	case 1:
		parts = append(parts, fmt.Sprintf("%d consecutive correct answers", params.ConsecutiveCorrectThreshold))
	case -1:
		parts = append(parts, fmt.Sprintf("%d consecutive incorrect answers", params.ConsecutiveCorrectThreshold))
	}

	switch adj.ErrorRate {
	case 1:
		parts = append(parts, "low error rate")
	case -1:
		parts = append(parts, "high error rate")
	}

	switch adj.Speed {
	case 1:
		parts = append(parts, "fast and accurate responses")
	case -1:
		parts = append(parts, "slow response times detected")
	}

	if len(parts) == 0 {
		return stableReason
	}
	return strings.Join(parts, ", ")
}
