package reward

// AccuracyMultiplier maps a trailing accuracy percentage onto its reward
// tier. Monotonically non-decreasing with boundaries at 80, 95 and 100.
func AccuracyMultiplier(accuracy float64) float64 {
	switch {
	case accuracy >= 100:
		return 2.0
	case accuracy >= 95:
		return 1.5
	case accuracy >= 80:
		return 1.2
	default:
		return 1.0
	}
}

// StreakMultiplier maps a streak length in days onto its reward tier.
func StreakMultiplier(streak int) float64 {
	switch {
	case streak >= 100:
		return 3.0
	case streak >= 50:
		return 2.5
	case streak >= 30:
		return 2.0
	case streak >= 14:
		return 1.5
	default:
		return 1.0
	}
}

// FrequencyMultiplier maps the average scans per day onto its reward tier.
// Users averaging less than one scan a day are penalized below 1.0.
func FrequencyMultiplier(dailyAverage float64) float64 {
	switch {
	case dailyAverage >= 10:
		return 2.0
	case dailyAverage >= 5:
		return 1.7
	case dailyAverage >= 3:
		return 1.4
	case dailyAverage >= 1:
		return 1.0
	default:
		return 0.8
	}
}

// ConsistencyMultiplier maps the percentage of active days in the trailing
// 30-day window onto its reward tier.
func ConsistencyMultiplier(consistency float64) float64 {
	switch {
	case consistency >= 95:
		return 2.5
	case consistency >= 80:
		return 2.0
	case consistency >= 65:
		return 1.5
	default:
		return 1.0
	}
}
