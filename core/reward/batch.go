package reward

import "github.com/PREETHAM1590/waste-app/core/model"

// ScoreBatch scores a sequence of activities, dispatching each to the scorer
// matching its type. The output preserves the order and length of the input;
// activities with an unrecognized type or a missing payload yield a
// zero-token result rather than an error.
func (c Calculator) ScoreBatch(activities []model.BatchActivity) []UserResult {
	results := make([]UserResult, len(activities))
	for i, act := range activities {
		res := Result{Breakdown: map[string]int64{}}
		switch {
		case act.Type == model.ActivityScan && act.Scan != nil:
			var stats model.PerformanceStats
			if act.Stats != nil {
				stats = *act.Stats
			}
			res = c.ScoreScan(*act.Scan, stats)
		case act.Type == model.ActivityStreak && act.Streak != nil:
			res = c.ScoreStreak(*act.Streak)
		case act.Type == model.ActivityAchievement && act.Achievement != nil:
			res = c.ScoreAchievement(*act.Achievement)
		case act.Type == model.ActivityCommunity && act.Community != nil:
			res = c.ScoreCommunity(*act.Community)
		}
		results[i] = UserResult{UserID: act.UserID, Result: res}
	}
	return results
}
