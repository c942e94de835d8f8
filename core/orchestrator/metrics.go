package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rewardsProcessed *prometheus.CounterVec
	tokensGranted    *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	flushDuration    prometheus.Histogram
	ledgerSuccess    prometheus.Counter
	ledgerFailure    prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Gauge, prometheus.Histogram, prometheus.Counter, prometheus.Counter) {
	proc := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_processed_total",
			Help: "Number of reward entries processed by dispatch outcome",
		},
		[]string{"activity", "outcome"},
	)
	toks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_tokens_distributed_total",
			Help: "Tokens successfully distributed per activity type",
		},
		[]string{"activity"},
	)
	depth := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reward_queue_depth",
			Help: "Number of reward entries awaiting batched dispatch",
		},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reward_flush_duration_seconds",
			Help:    "Duration of queue flush cycles",
			Buckets: prometheus.DefBuckets,
		},
	)
	suc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_transfer_success_total",
			Help: "Number of successful ledger transfer calls",
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_transfer_failure_total",
			Help: "Number of failed ledger transfer calls",
		},
	)
	return proc, toks, depth, dur, suc, fail
}

func init() {
	rewardsProcessed, tokensGranted, queueDepth, flushDuration, ledgerSuccess, ledgerFailure = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers orchestrator metrics on the provided
// registry. If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(rewardsProcessed, tokensGranted, queueDepth, flushDuration, ledgerSuccess, ledgerFailure)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	rewardsProcessed, tokensGranted, queueDepth, flushDuration, ledgerSuccess, ledgerFailure = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
