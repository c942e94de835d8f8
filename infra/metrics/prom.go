package metrics

import (
	"strconv"

	coremetrics "github.com/PREETHAM1590/waste-app/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records reward distributions in Prometheus metrics.
type PromSink struct {
	distributions *prometheus.CounterVec
	tokens        *prometheus.CounterVec
	depth         prometheus.Gauge
	flushes       prometheus.Counter
}

// NewPromSink registers distribution metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	distributions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reward_distributions_total",
		Help: "Total number of reward distribution attempts",
	}, []string{"activity", "success", "batched"})
	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reward_distribution_tokens_total",
		Help: "Tokens distributed through completed transfers",
	}, []string{"activity"})
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reward_pending_queue_depth",
		Help: "Number of rewards awaiting the next batch flush",
	})
	flushes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reward_queue_flushes_total",
		Help: "Number of completed queue flush cycles",
	})

	if err := reg.Register(distributions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			distributions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(tokens); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			tokens = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(depth); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			depth = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(flushes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			flushes = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}

	return &PromSink{distributions: distributions, tokens: tokens, depth: depth, flushes: flushes}, nil
}

// RecordDistribution increments the counters for each processed reward.
func (s *PromSink) RecordDistribution(results []coremetrics.DistributionResult) error {
	for _, r := range results {
		s.distributions.WithLabelValues(r.Activity.String(), strconv.FormatBool(r.Success), strconv.FormatBool(r.Batched)).Inc()
		if r.Success {
			s.tokens.WithLabelValues(r.Activity.String()).Add(float64(r.Tokens))
		}
	}
	return nil
}

// RecordQueueDepth sets the pending-queue gauge.
func (s *PromSink) RecordQueueDepth(depth int) error {
	if s.depth != nil {
		s.depth.Set(float64(depth))
	}
	return nil
}

// RecordFlush counts a completed flush cycle.
func (s *PromSink) RecordFlush(coremetrics.FlushEvent) error {
	if s.flushes != nil {
		s.flushes.Inc()
	}
	return nil
}
