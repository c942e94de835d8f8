package reward

import "time"

// SeasonalMultiplier returns the calendar bonus factor for an activity
// timestamp. Windows are evaluated on the UTC calendar so that every node
// agrees on which day an activity falls on, regardless of client timezone:
//
//	Apr 18-25 (Earth Day week)        3.0
//	Jun 5 (World Environment Day)     2.0
//	Nov 1-7 (Recycle Week)            2.0
//	Saturday or Sunday                1.2
//	otherwise                         1.0
//
// The dated windows take precedence over the weekend bonus.
func SeasonalMultiplier(ts time.Time) float64 {
	t := ts.UTC()
	month, day := t.Month(), t.Day()

	if month == time.April && day >= 18 && day <= 25 {
		return 3.0
	}
	if month == time.June && day == 5 {
		return 2.0
	}
	if month == time.November && day <= 7 {
		return 2.0
	}
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return 1.2
	}
	return 1.0
}
