package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/PREETHAM1590/waste-app/core/metrics"
	"github.com/PREETHAM1590/waste-app/infra/logger"
)

// InfluxSink writes reward distributions to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordDistribution writes one point per processed reward.
func (s *InfluxSink) RecordDistribution(results []coremetrics.DistributionResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range results {
		p := write.NewPointWithMeasurement("reward_distribution").
			AddTag("user_id", r.UserID).
			AddTag("activity", r.Activity.String()).
			AddTag("success", strconv.FormatBool(r.Success)).
			AddTag("batched", strconv.FormatBool(r.Batched)).
			AddTag("component", "reward_orchestrator").
			AddField("tokens", r.Tokens).
			AddField("tx_ref", r.TxRef).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordQueueDepth writes a snapshot of the pending queue length.
func (s *InfluxSink) RecordQueueDepth(depth int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("reward_queue_depth").
		AddTag("component", "reward_orchestrator").
		AddField("depth", depth).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFlush persists the result of a flush cycle.
func (s *InfluxSink) RecordFlush(ev coremetrics.FlushEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("reward_queue_flush").
		AddTag("component", "reward_orchestrator").
		AddField("entries", ev.Entries).
		AddField("recipients", ev.Recipients).
		AddField("duration_ms", ev.Duration.Seconds()*1000).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
