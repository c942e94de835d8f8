package reward

import (
	"testing"

	"github.com/PREETHAM1590/waste-app/core/model"
)

// neutralStats picks the tier floor of every multiplier so the final
// multiplier is exactly 1.0.
func neutralStats() model.PerformanceStats {
	return model.PerformanceStats{
		AverageAccuracy: 50,
		CurrentStreak:   1,
		DailyAverage:    1,
		Consistency:     50,
	}
}

func TestScoreScanTopTier(t *testing.T) {
	calc := Calculator{}
	stats := model.PerformanceStats{
		AverageAccuracy: 100,
		CurrentStreak:   100,
		DailyAverage:    10,
		Consistency:     95,
	}
	res := calc.ScoreScan(model.ScanActivity{IsCorrect: true, Confidence: 0.95}, stats)

	if res.TotalTokens != 35 {
		t.Fatalf("total = %d, want 35", res.TotalTokens)
	}
	if res.Breakdown[FactorCorrectScan] != 10 || res.Breakdown[FactorHighConfidence] != 5 {
		t.Errorf("breakdown = %v", res.Breakdown)
	}
	if res.Multipliers[MultiplierFinal] != 2.375 {
		t.Errorf("final multiplier = %v, want 2.375", res.Multipliers[MultiplierFinal])
	}
}

func TestScoreScanIncorrect(t *testing.T) {
	calc := Calculator{}
	res := calc.ScoreScan(model.ScanActivity{IsCorrect: false, Confidence: 0.99}, neutralStats())
	if res.TotalTokens != 0 {
		t.Fatalf("total = %d, want 0", res.TotalTokens)
	}
	if len(res.Breakdown) != 0 {
		t.Errorf("breakdown should be empty for an incorrect scan: %v", res.Breakdown)
	}
}

func TestScoreScanConfidenceBoundary(t *testing.T) {
	calc := Calculator{}
	stats := neutralStats()

	at := calc.ScoreScan(model.ScanActivity{IsCorrect: true, Confidence: 0.9}, stats)
	if at.TotalTokens != 10 {
		t.Errorf("confidence 0.90 total = %d, want 10 (bonus requires > 0.9)", at.TotalTokens)
	}
	above := calc.ScoreScan(model.ScanActivity{IsCorrect: true, Confidence: 0.91}, stats)
	if above.TotalTokens != 15 {
		t.Errorf("confidence 0.91 total = %d, want 15", above.TotalTokens)
	}
}

func TestScoreScanFloors(t *testing.T) {
	calc := Calculator{}
	// Accuracy 80 -> 1.2, the rest neutral: final = 1.05, 10*1.05 = 10.5.
	stats := model.PerformanceStats{AverageAccuracy: 80, CurrentStreak: 1, DailyAverage: 1, Consistency: 50}
	res := calc.ScoreScan(model.ScanActivity{IsCorrect: true, Confidence: 0.5}, stats)
	if res.TotalTokens != 10 {
		t.Fatalf("total = %d, want 10 (10.5 floored)", res.TotalTokens)
	}
}

func TestScoreStreakDaily(t *testing.T) {
	calc := Calculator{}

	cases := []struct {
		name   string
		streak int
		record bool
		want   int64
	}{
		{"plain day", 3, false, 20},
		{"weekly bonus", 7, false, 120},
		{"monthly bonus", 30, false, 520},
		{"weekly and monthly", 210, false, 620},
		{"new record", 10, true, 70},
		{"record on weekly", 14, true, 190},
	}
	for _, c := range cases {
		res := calc.ScoreStreak(model.StreakActivity{
			CurrentStreak: c.streak,
			StreakType:    model.StreakDaily,
			IsNewRecord:   c.record,
		})
		if res.TotalTokens != c.want {
			t.Errorf("%s: total = %d, want %d", c.name, res.TotalTokens, c.want)
		}
	}
}

func TestScoreStreakNonDaily(t *testing.T) {
	calc := Calculator{}
	for _, st := range []model.StreakType{model.StreakWeekly, model.StreakMonthly} {
		res := calc.ScoreStreak(model.StreakActivity{CurrentStreak: 14, StreakType: st})
		if res.TotalTokens != 0 {
			t.Errorf("%s streak total = %d, want 0", st, res.TotalTokens)
		}
	}
}

func TestScoreAchievement(t *testing.T) {
	calc := Calculator{}

	cases := []struct {
		category  string
		milestone int
		rare      bool
		want      int64
	}{
		{"recycling", 10, false, 100},
		{"accuracy", 10, false, 200},
		{"streak", 10, false, 150},
		{"community", 50, false, 1250},
		{"community", 50, true, 2500},
		{"unknown", 999, false, 100},
		{"unknown", 999, true, 200},
	}
	for _, c := range cases {
		res := calc.ScoreAchievement(model.AchievementActivity{
			Category:  c.category,
			Milestone: c.milestone,
			IsRare:    c.rare,
		})
		if res.TotalTokens != c.want {
			t.Errorf("%s/%d rare=%v: total = %d, want %d", c.category, c.milestone, c.rare, res.TotalTokens, c.want)
		}
	}
}

func TestScoreCommunity(t *testing.T) {
	calc := Calculator{}

	cases := []struct {
		kind, impact, level string
		want                int64
	}{
		{"mentoring", "high", "expert", 150},          // 25 * 2.0*1.5*2.0
		{"tip_sharing", "low", "beginner", 12},        // 25 * 0.5 = 12.5, floored
		{"content_creation", "viral", "master", 468},  // 25 * 2.5*3.0*2.5 = 468.75, floored
		{"nonsense", "nonsense", "nonsense", 25},      // unknown keys fall back to 1.0
	}

	for _, c := range cases {
		res := calc.ScoreCommunity(model.CommunityActivity{
			ActivityKind:     c.kind,
			Impact:           c.impact,
			ContributorLevel: c.level,
		})
		if res.TotalTokens != c.want {
			t.Errorf("%s/%s/%s: total = %d, want %d", c.kind, c.impact, c.level, res.TotalTokens, c.want)
		}
	}
}
