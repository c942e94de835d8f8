// Package eligibility implements the anti-fraud acceptance gate applied
// before any reward dispatch. It is a heuristic, not a proof: each check
// raises an independent suspicion flag and an activity is rejected only when
// two or more flags fire together.
package eligibility

import (
	"time"

	"github.com/PREETHAM1590/waste-app/core/logger"
	"github.com/PREETHAM1590/waste-app/core/model"
)

// Flag names one suspicion signal raised against an activity.
type Flag string

const (
	FlagRapidActivity    Flag = "rapid_scanning"
	FlagUnrealisticSpeed Flag = "unrealistic_speed"
	FlagLocationJump     Flag = "location_jumping"
)

const (
	rapidWindow         = 60 * time.Second
	rapidCountLimit     = 5
	speedConfidence     = 0.95
	speedSessionFloor   = 5 * time.Second
	locationVarianceMax = 100.0
	rejectFlagCount     = 2
)

// Locator scores how far an activity location deviates from the locations a
// user typically scans from. Implementations own the distance model; the
// guard only compares the returned variance against a threshold.
type Locator interface {
	Variance(current model.Location, typical []model.Location) float64
}

// NopLocator reports zero variance for every location, disabling the
// location-jump check.
type NopLocator struct{}

// Variance always returns 0.
func (NopLocator) Variance(model.Location, []model.Location) float64 { return 0 }

// Decision carries the gate outcome together with the flags that fired, so
// operators can see why an activity was rejected even though callers only
// act on Accepted.
type Decision struct {
	Accepted bool   `json:"accepted"`
	Flags    []Flag `json:"flags,omitempty"`
}

// Guard evaluates activities against recent user history.
type Guard struct {
	locator Locator
	log     logger.Logger
}

// NewGuard creates a Guard. A nil locator disables the location check; a nil
// logger suppresses flag logging.
func NewGuard(locator Locator, log logger.Logger) *Guard {
	if locator == nil {
		locator = NopLocator{}
	}
	return &Guard{locator: locator, log: log}
}

// Evaluate inspects a scan against the user's recent history and returns the
// gate decision. The checks are independent:
//
//   - more than five prior activities inside the trailing minute
//   - claimed confidence above 0.95 on a session shorter than five seconds
//   - location variance against typical locations above 100
func (g *Guard) Evaluate(scan model.ScanActivity, history model.UserHistory) Decision {
	var flags []Flag

	recent := 0
	for _, act := range history.RecentActivities {
		if scan.Timestamp.Sub(act.Timestamp) < rapidWindow {
			recent++
		}
	}
	if recent > rapidCountLimit {
		flags = append(flags, FlagRapidActivity)
	}

	if scan.SessionDuration < speedSessionFloor && scan.Confidence > speedConfidence {
		flags = append(flags, FlagUnrealisticSpeed)
	}

	if scan.Location != nil && len(history.TypicalLocations) > 0 {
		if g.locator.Variance(*scan.Location, history.TypicalLocations) > locationVarianceMax {
			flags = append(flags, FlagLocationJump)
		}
	}

	accepted := len(flags) < rejectFlagCount
	if !accepted && g.log != nil {
		g.log.Warnf("eligibility rejected for user %s: flags %v", scan.UserID, flags)
	}
	return Decision{Accepted: accepted, Flags: flags}
}
