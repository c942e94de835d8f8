package model

import "time"

// UserLevel orders users by engagement tier.
type UserLevel string

const (
	LevelBeginner     UserLevel = "beginner"
	LevelIntermediate UserLevel = "intermediate"
	LevelAdvanced     UserLevel = "advanced"
	LevelExpert       UserLevel = "expert"
	LevelMaster       UserLevel = "master"
	LevelVIP          UserLevel = "vip"
)

// PerformanceStats is the trailing-window performance snapshot used by the
// scoring engine. It is supplied fresh per call and never mutated here.
type PerformanceStats struct {
	AverageAccuracy float64   `json:"average_accuracy"` // 0-100
	CurrentStreak   int       `json:"current_streak"`   // days
	DailyAverage    float64   `json:"daily_average"`    // scans per day
	Consistency     float64   `json:"consistency"`      // % active days over 30d
	Level           UserLevel `json:"level"`
	TotalRecycled   int       `json:"total_recycled"`
}

// ActivityRecord is one historical activity used by the eligibility guard.
type ActivityRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Location  *Location `json:"location,omitempty"`
}

// UserHistory is the recent-behaviour summary consumed by the eligibility
// guard.
type UserHistory struct {
	RecentActivities   []ActivityRecord `json:"recent_activities"`
	AverageSessionTime time.Duration    `json:"average_session_time"`
	TypicalLocations   []Location       `json:"typical_locations"`
}
