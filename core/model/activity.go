package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActivityType identifies the kind of user action being rewarded.
type ActivityType int

const (
	ActivityScan ActivityType = iota
	ActivityStreak
	ActivityAchievement
	ActivityCommunity
)

// String returns a human-readable representation of the activity type.
func (t ActivityType) String() string {
	switch t {
	case ActivityScan:
		return "scan"
	case ActivityStreak:
		return "streak"
	case ActivityAchievement:
		return "achievement"
	case ActivityCommunity:
		return "community"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the activity type as its wire name.
func (t ActivityType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an activity type from its wire name.
func (t *ActivityType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseActivityType(s)
	if !ok {
		return fmt.Errorf("unknown activity type %q", s)
	}
	*t = parsed
	return nil
}

// ParseActivityType maps a wire name onto an ActivityType. Unknown names
// return false.
func ParseActivityType(s string) (ActivityType, bool) {
	switch s {
	case "scan":
		return ActivityScan, true
	case "streak":
		return ActivityStreak, true
	case "achievement":
		return ActivityAchievement, true
	case "community":
		return ActivityCommunity, true
	default:
		return 0, false
	}
}

// Location is a geographic coordinate attached to a scan.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StreakType distinguishes the cadence a streak is counted on.
type StreakType string

const (
	StreakDaily   StreakType = "daily"
	StreakWeekly  StreakType = "weekly"
	StreakMonthly StreakType = "monthly"
)

// ScanActivity is a verified recycling scan submitted for reward.
type ScanActivity struct {
	UserID          string        `json:"user_id"`
	WalletAddress   string        `json:"wallet_address"`
	ItemType        string        `json:"item_type"`
	Classification  string        `json:"classification"`
	Confidence      float64       `json:"confidence"` // classifier confidence in [0,1]
	IsCorrect       bool          `json:"is_correct"`
	SessionDuration time.Duration `json:"session_duration"`
	Timestamp       time.Time     `json:"timestamp"`
	Location        *Location     `json:"location,omitempty"`
}

// StreakActivity reports a streak milestone reached by a user.
type StreakActivity struct {
	UserID        string     `json:"user_id"`
	WalletAddress string     `json:"wallet_address"`
	CurrentStreak int        `json:"current_streak"`
	StreakType    StreakType `json:"streak_type"`
	IsNewRecord   bool       `json:"is_new_record"`
}

// AchievementActivity reports an unlocked achievement.
type AchievementActivity struct {
	UserID        string `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
	Category      string `json:"category"` // recycling, accuracy, streak, community
	Milestone     int    `json:"milestone"`
	IsRare        bool   `json:"is_rare"`
}

// CommunityActivity reports a community contribution.
type CommunityActivity struct {
	UserID           string `json:"user_id"`
	WalletAddress    string `json:"wallet_address"`
	ActivityKind     string `json:"activity_kind"` // tip_sharing, mentoring, ...
	Impact           string `json:"impact"`        // low, medium, high, viral
	ContributorLevel string `json:"contributor_level"`
}

// BatchActivity is one element of a batch scoring request. Exactly one of the
// payload pointers matching Type is expected to be set.
type BatchActivity struct {
	UserID      string               `json:"user_id"`
	Type        ActivityType         `json:"type"`
	Scan        *ScanActivity        `json:"scan,omitempty"`
	Streak      *StreakActivity      `json:"streak,omitempty"`
	Achievement *AchievementActivity `json:"achievement,omitempty"`
	Community   *CommunityActivity   `json:"community,omitempty"`
	// Stats accompanies scan payloads; scans without a snapshot are scored
	// against zero-value stats.
	Stats *PerformanceStats `json:"stats,omitempty"`
}

// Wallet returns the wallet address carried by the active payload, if any.
func (b BatchActivity) Wallet() string {
	switch {
	case b.Scan != nil:
		return b.Scan.WalletAddress
	case b.Streak != nil:
		return b.Streak.WalletAddress
	case b.Achievement != nil:
		return b.Achievement.WalletAddress
	case b.Community != nil:
		return b.Community.WalletAddress
	default:
		return ""
	}
}
