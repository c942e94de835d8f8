// Package app wires the reward orchestrator, its backends and the outer
// surfaces (HTTP API, MQTT connector, flush scheduler) from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/PREETHAM1590/waste-app/api/rewards"
	"github.com/PREETHAM1590/waste-app/config"
	"github.com/PREETHAM1590/waste-app/core/eligibility"
	"github.com/PREETHAM1590/waste-app/core/events"
	"github.com/PREETHAM1590/waste-app/core/ledger"
	coremetrics "github.com/PREETHAM1590/waste-app/core/metrics"
	"github.com/PREETHAM1590/waste-app/core/orchestrator"
	"github.com/PREETHAM1590/waste-app/core/reward"
	"github.com/PREETHAM1590/waste-app/core/rewardlog"
	"github.com/PREETHAM1590/waste-app/core/userstats"
	"github.com/PREETHAM1590/waste-app/infra/geo"
	infralogger "github.com/PREETHAM1590/waste-app/infra/logger"
	inframetrics "github.com/PREETHAM1590/waste-app/infra/metrics"
	inframqtt "github.com/PREETHAM1590/waste-app/infra/mqtt"
	"github.com/PREETHAM1590/waste-app/internal/eventbus"

	// Register the built-in ledger backends.
	_ "github.com/PREETHAM1590/waste-app/infra/ledger"
)

// Service owns the orchestrator and its outer surfaces.
type Service struct {
	Orchestrator *orchestrator.Orchestrator
	client       ledger.Client
	store        rewardlog.Store
	connector    *inframqtt.Connector
	cron         *cron.Cron
	httpSrv      *http.Server
	bus          eventbus.EventBus
	stopFlushes  func()
	log          infralogger.Logger
	promPort     string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := infralogger.New("service")

	client, err := ledger.NewClient(cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("ledger client: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	store, err := rewardlog.NewStore(cfg.RewardLog)
	if err != nil {
		return nil, fmt.Errorf("reward log: %w", err)
	}

	bus := eventbus.New()
	provider := userstats.NewMemoryProvider()
	guard := eligibility.NewGuard(geo.HaversineLocator{}, infralogger.New("eligibility"))

	orch, err := orchestrator.New(
		reward.Calculator{},
		guard,
		client,
		provider,
		cfg.Orchestrator,
		sink,
		bus,
		logg,
	)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	orch.SetLogStore(store)

	svc := &Service{
		Orchestrator: orch,
		client:       client,
		store:        store,
		bus:          bus,
		log:          logg,
		promPort:     cfg.Metrics.PrometheusPort,
	}

	if cfg.MQTT.Enabled {
		conn, err := inframqtt.NewConnector(cfg.MQTT.Config, orch)
		if err != nil {
			return nil, fmt.Errorf("mqtt connector: %w", err)
		}
		svc.connector = conn
	}

	if cfg.Scheduler.FlushCron != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Scheduler.FlushCron, func() {
			orch.Flush(context.Background())
		}); err != nil {
			return nil, fmt.Errorf("flush schedule %q: %w", cfg.Scheduler.FlushCron, err)
		}
		svc.cron = c
	}

	handler := rewards.NewHandler(orch, client, store, cfg.API.Token, infralogger.New("api"))
	svc.httpSrv = &http.Server{Addr: cfg.API.Address, Handler: handler.Router()}

	// Surface flush cycles in the service log regardless of which caller
	// (threshold, cron, process-queue) triggered them.
	flushes, stopFlushes := eventbus.SubscribeTo[events.FlushEvent](bus)
	svc.stopFlushes = stopFlushes
	go func() {
		for ev := range flushes {
			logg.Infof("queue flush: %d entries to %d recipients in %s",
				ev.Entries, ev.Recipients, ev.Duration)
		}
	}()

	return svc, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cron != nil {
		s.cron.Start()
	}
	if s.promPort != "" {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("reward API listening on %s", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http shutdown: %v", err)
	}
	// Drain whatever is still queued before exiting.
	s.Orchestrator.Flush(shutdownCtx)
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.connector != nil {
		s.connector.Disconnect()
	}
	if s.stopFlushes != nil {
		s.stopFlushes()
	}
	// The orchestrator owns the bus and the reward log store.
	firstErr := s.Orchestrator.Close()
	if err := s.client.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
