package test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PREETHAM1590/waste-app/core/eligibility"
	coremetrics "github.com/PREETHAM1590/waste-app/core/metrics"
	"github.com/PREETHAM1590/waste-app/core/model"
	"github.com/PREETHAM1590/waste-app/core/orchestrator"
	"github.com/PREETHAM1590/waste-app/core/reward"
	"github.com/PREETHAM1590/waste-app/core/rewardlog"
	"github.com/PREETHAM1590/waste-app/core/userstats"
	"github.com/PREETHAM1590/waste-app/infra/geo"
	"github.com/PREETHAM1590/waste-app/infra/ledger"
	"github.com/PREETHAM1590/waste-app/infra/logger"
	"github.com/PREETHAM1590/waste-app/infra/metrics"
	"github.com/PREETHAM1590/waste-app/internal/eventbus"
)

func waitForMetric(url, substr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			body, _ := io.ReadAll(resp.Body)
			if err := resp.Body.Close(); err != nil {
				return err
			}
			if strings.Contains(string(body), substr) {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("metric %s not found", substr)
}

// neutral stats keep the performance multiplier at exactly 1.0 so token
// amounts in this test stay predictable.
func neutralPerformance() model.PerformanceStats {
	return model.PerformanceStats{
		AverageAccuracy: 50,
		CurrentStreak:   1,
		DailyAverage:    1,
		Consistency:     50,
		Level:           model.LevelBeginner,
	}
}

func TestRewardFlowEndToEnd(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	client := ledger.NewMockClient()
	provider := userstats.NewMemoryProvider()
	provider.SetStats("u1", neutralPerformance())
	provider.SetStats("u2", neutralPerformance())
	guard := eligibility.NewGuard(geo.HaversineLocator{}, logger.NopLogger{})
	bus := eventbus.New()
	defer bus.Close()

	orch, err := orchestrator.New(reward.Calculator{}, guard, client, provider,
		orchestrator.Config{}, sink, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	store, err := rewardlog.NewJSONLStore(filepath.Join(t.TempDir(), "rewards.log"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer func() { _ = store.Close() }()
	orch.SetLogStore(store)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	// Monday, outside every seasonal window.
	weekday := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

	scan := model.ScanActivity{
		UserID:          "u1",
		WalletAddress:   "0xwallet-a",
		ItemType:        "plastic_bottle",
		Confidence:      0.95,
		IsCorrect:       true,
		SessionDuration: 20 * time.Second,
		Timestamp:       weekday,
	}
	res := orch.SubmitScan(ctx, scan)
	if res.Outcome != orchestrator.OutcomeQueued {
		t.Fatalf("scan outcome: %v (%s)", res.Outcome, res.Error)
	}
	if res.TokensAwarded != 15 {
		t.Fatalf("scan tokens: %d", res.TokensAwarded)
	}

	scan.UserID = "u2"
	if res := orch.SubmitScan(ctx, scan); res.Outcome != orchestrator.OutcomeQueued {
		t.Fatalf("second scan outcome: %v", res.Outcome)
	}

	streak := model.StreakActivity{
		UserID:        "u1",
		WalletAddress: "0xwallet-a",
		CurrentStreak: 30,
		StreakType:    model.StreakDaily,
	}
	sres := orch.SubmitStreak(ctx, streak)
	if sres.Outcome != orchestrator.OutcomeDispatched {
		t.Fatalf("streak outcome: %v (%s)", sres.Outcome, sres.Error)
	}
	if sres.TokensAwarded != 520 {
		t.Fatalf("streak tokens: %d", sres.TokensAwarded)
	}
	if sres.TxRef == "" {
		t.Fatal("streak missing tx ref")
	}

	if st := orch.QueueStatus(); st.Length != 2 {
		t.Fatalf("queue length: %d", st.Length)
	}

	orch.Flush(ctx)

	if st := orch.QueueStatus(); st.Length != 0 {
		t.Fatalf("queue not drained: %d", st.Length)
	}

	transfers := client.Transfers()
	if len(transfers) != 2 {
		t.Fatalf("transfers: %d", len(transfers))
	}
	// Both queued scans share a wallet and collapse into one batch transfer.
	batch := transfers[1]
	if batch.Recipient != "0xwallet-a" || batch.Amount != 30 {
		t.Fatalf("batch transfer: %+v", batch)
	}
	if !strings.Contains(batch.Reason, "Batch reward: 2 activities") {
		t.Fatalf("batch reason: %s", batch.Reason)
	}

	stats := orch.Stats()
	if stats.TotalRewardsProcessed != 3 {
		t.Fatalf("rewards processed: %d", stats.TotalRewardsProcessed)
	}
	if stats.TotalTokensDistributed != 550 {
		t.Fatalf("tokens distributed: %d", stats.TotalTokensDistributed)
	}
	if stats.DistributionSuccessRate != 1.0 {
		t.Fatalf("success rate: %v", stats.DistributionSuccessRate)
	}

	recs, err := store.Query(ctx, rewardlog.Query{UserID: "u1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("u1 records: %d", len(recs))
	}

	for _, substr := range []string{
		`reward_distribution_tokens_total{activity="streak"} 520`,
		`reward_distributions_total{activity="scan",batched="true",success="true"} 2`,
		`reward_queue_flushes_total 1`,
	} {
		if err := waitForMetric(srv.URL+"/metrics", substr, 3*time.Second); err != nil {
			t.Errorf("metric wait: %v", err)
		}
	}
}
