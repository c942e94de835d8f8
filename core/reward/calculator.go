// Package reward implements the deterministic token scoring engine. All
// scoring functions are pure: given the same activity facts and performance
// snapshot they return the same result, with no I/O and no side effects.
package reward

import (
	"math"

	"github.com/PREETHAM1590/waste-app/core/model"
)

// Base token awards per action.
const (
	BaseCorrectScan        int64 = 10
	BaseHighConfidenceScan int64 = 5 // additional for confidence > 0.9
	BaseDailyStreak        int64 = 20
	BaseWeeklyStreakBonus  int64 = 100
	BaseMonthlyStreakBonus int64 = 500
	BaseCommunity          int64 = 25

	// NewRecordPerDay tokens are granted per day of a record-setting streak.
	NewRecordPerDay int64 = 5

	// DefaultAchievementBase applies to unrecognized achievement categories.
	DefaultAchievementBase int64 = 100

	highConfidenceThreshold = 0.9
)

// Breakdown keys.
const (
	FactorCorrectScan    = "correct_scan"
	FactorHighConfidence = "high_confidence"
	FactorDailyStreak    = "daily_streak"
	FactorWeeklyBonus    = "weekly_bonus"
	FactorMonthlyBonus   = "monthly_bonus"
	FactorNewRecordBonus = "new_record_bonus"
	FactorBaseReward     = "base_reward"
)

// Multiplier keys.
const (
	MultiplierAccuracy    = "accuracy"
	MultiplierStreak      = "streak"
	MultiplierFrequency   = "frequency"
	MultiplierConsistency = "consistency"
	MultiplierFinal       = "final"
	MultiplierActivity    = "activity"
	MultiplierImpact      = "impact"
	MultiplierLevel       = "level"
	MultiplierTotal       = "total"
	MultiplierRare        = "rare"
	MultiplierSeasonal    = "seasonal"
)

// Result is the outcome of scoring a single activity. TotalTokens is always
// a non-negative integer; fractional multiplier results are floored.
type Result struct {
	TotalTokens int64              `json:"total_tokens"`
	Breakdown   map[string]int64   `json:"breakdown"`
	Multipliers map[string]float64 `json:"multipliers,omitempty"`
}

// UserResult tags a Result with the user it was computed for.
type UserResult struct {
	UserID string `json:"user_id"`
	Result
}

// Calculator scores activities. The zero value is ready to use.
type Calculator struct{}

// ScoreScan computes the reward for a recycling scan. The base award and the
// high-confidence bonus are summed first; the mean of the four performance
// multipliers is then applied to that sum and the product floored.
func (Calculator) ScoreScan(scan model.ScanActivity, stats model.PerformanceStats) Result {
	var total int64
	breakdown := make(map[string]int64)

	if scan.IsCorrect {
		total += BaseCorrectScan
		breakdown[FactorCorrectScan] = BaseCorrectScan
		if scan.Confidence > highConfidenceThreshold {
			total += BaseHighConfidenceScan
			breakdown[FactorHighConfidence] = BaseHighConfidenceScan
		}
	}

	accuracy := AccuracyMultiplier(stats.AverageAccuracy)
	streak := StreakMultiplier(stats.CurrentStreak)
	frequency := FrequencyMultiplier(stats.DailyAverage)
	consistency := ConsistencyMultiplier(stats.Consistency)

	// Mean, not product: four strong tiers roughly double the award instead
	// of multiplying it out to 30x.
	final := (accuracy + streak + frequency + consistency) / 4

	return Result{
		TotalTokens: int64(math.Floor(float64(total) * final)),
		Breakdown:   breakdown,
		Multipliers: map[string]float64{
			MultiplierAccuracy:    accuracy,
			MultiplierStreak:      streak,
			MultiplierFrequency:   frequency,
			MultiplierConsistency: consistency,
			MultiplierFinal:       final,
		},
	}
}

// ScoreStreak computes the reward for a streak milestone. Only daily streaks
// earn tokens; weekly and monthly streak types pass through with zero reward.
// A streak that is a multiple of both 7 and 30 earns both bonuses.
func (Calculator) ScoreStreak(st model.StreakActivity) Result {
	var total int64
	breakdown := make(map[string]int64)

	if st.StreakType == model.StreakDaily {
		total += BaseDailyStreak
		breakdown[FactorDailyStreak] = BaseDailyStreak

		if st.CurrentStreak > 0 && st.CurrentStreak%7 == 0 {
			total += BaseWeeklyStreakBonus
			breakdown[FactorWeeklyBonus] = BaseWeeklyStreakBonus
		}
		if st.CurrentStreak > 0 && st.CurrentStreak%30 == 0 {
			total += BaseMonthlyStreakBonus
			breakdown[FactorMonthlyBonus] = BaseMonthlyStreakBonus
		}
		if st.IsNewRecord {
			bonus := NewRecordPerDay * int64(st.CurrentStreak)
			total += bonus
			breakdown[FactorNewRecordBonus] = bonus
		}
	}

	return Result{TotalTokens: total, Breakdown: breakdown}
}

// ScoreAchievement computes the reward for an unlocked achievement. The base
// is milestone times a per-category coefficient; rare achievements double it.
func (Calculator) ScoreAchievement(a model.AchievementActivity) Result {
	var base int64
	switch a.Category {
	case "recycling":
		base = int64(a.Milestone) * 10
	case "accuracy":
		base = int64(a.Milestone) * 20
	case "streak":
		base = int64(a.Milestone) * 15
	case "community":
		base = int64(a.Milestone) * 25
	default:
		base = DefaultAchievementBase
	}

	rare := 1.0
	if a.IsRare {
		base *= 2
		rare = 2.0
	}

	return Result{
		TotalTokens: base,
		Breakdown:   map[string]int64{FactorBaseReward: base},
		Multipliers: map[string]float64{MultiplierRare: rare},
	}
}

var communityActivityMultipliers = map[string]float64{
	"tip_sharing":         1.0,
	"location_reporting":  1.2,
	"community_challenge": 1.5,
	"mentoring":           2.0,
	"content_creation":    2.5,
}

var communityImpactMultipliers = map[string]float64{
	"low":    0.5,
	"medium": 1.0,
	"high":   1.5,
	"viral":  3.0,
}

var communityLevelMultipliers = map[string]float64{
	"beginner":     1.0,
	"intermediate": 1.2,
	"advanced":     1.5,
	"expert":       2.0,
	"master":       2.5,
}

// ScoreCommunity computes the reward for a community contribution. Unlike
// scan scoring, the three lookup multipliers are combined as their product.
// Unrecognized keys fall back to 1.0 rather than failing.
func (Calculator) ScoreCommunity(c model.CommunityActivity) Result {
	activity := lookupMultiplier(communityActivityMultipliers, c.ActivityKind)
	impact := lookupMultiplier(communityImpactMultipliers, c.Impact)
	level := lookupMultiplier(communityLevelMultipliers, c.ContributorLevel)
	total := activity * impact * level

	return Result{
		TotalTokens: int64(math.Floor(float64(BaseCommunity) * total)),
		Breakdown:   map[string]int64{FactorBaseReward: BaseCommunity},
		Multipliers: map[string]float64{
			MultiplierActivity: activity,
			MultiplierImpact:   impact,
			MultiplierLevel:    level,
			MultiplierTotal:    total,
		},
	}
}

func lookupMultiplier(table map[string]float64, key string) float64 {
	if m, ok := table[key]; ok {
		return m
	}
	return 1.0
}
