// Package events defines the reward lifecycle events emitted on the event
// bus.
//
// Available event types:
//   - ScoredEvent: an activity was scored
//   - EligibilityEvent: the anti-fraud gate decided on an activity
//   - DispatchEvent: a ledger transfer attempt completed
//   - FlushEvent: a queue flush finished
package events
