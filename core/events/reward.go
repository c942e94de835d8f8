package events

import (
	"time"

	"github.com/PREETHAM1590/waste-app/core/eligibility"
	"github.com/PREETHAM1590/waste-app/core/model"
)

// ScoredEvent is published when an activity has been scored.
type ScoredEvent struct {
	UserID   string
	Activity model.ActivityType
	Tokens   int64
}

// EligibilityEvent is published with the outcome of the anti-fraud gate.
type EligibilityEvent struct {
	UserID   string
	Accepted bool
	Flags    []eligibility.Flag
}

// DispatchEvent is published for each completed ledger transfer attempt.
type DispatchEvent struct {
	UserID    string
	Wallet    string
	Activity  model.ActivityType
	Tokens    int64
	Success   bool
	TxRef     string
	Batched   bool
	Err       error
	Completed time.Time
}

// FlushEvent is published when a queue flush finishes.
type FlushEvent struct {
	Entries    int
	Recipients int
	Duration   time.Duration
}
