// Package metrics defines the sink interfaces through which the orchestrator
// reports reward distribution activity to observability backends.
package metrics

import (
	"time"

	"github.com/PREETHAM1590/waste-app/core/model"
)

// DistributionResult represents one processed reward entry to be recorded.
type DistributionResult struct {
	UserID   string
	Wallet   string
	Activity model.ActivityType
	Tokens   int64
	Success  bool
	TxRef    string
	Batched  bool
	Time     time.Time
}

// MetricsSink records completed reward distributions for observability
// purposes.
type MetricsSink interface {
	RecordDistribution(results []DistributionResult) error
}

// QueueDepthRecorder is implemented by sinks able to record the pending
// queue depth after enqueue and flush operations.
type QueueDepthRecorder interface {
	RecordQueueDepth(depth int) error
}

// FlushEvent captures one completed flush cycle.
type FlushEvent struct {
	Entries    int
	Recipients int
	Duration   time.Duration
	Time       time.Time
}

// FlushRecorder is implemented by sinks able to record flush cycles.
type FlushRecorder interface {
	RecordFlush(ev FlushEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordDistribution([]DistributionResult) error { return nil }
func (NopSink) RecordQueueDepth(int) error                    { return nil }
func (NopSink) RecordFlush(FlushEvent) error                  { return nil }
