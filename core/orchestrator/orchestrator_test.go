package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PREETHAM1590/waste-app/core/eligibility"
	ledgerapi "github.com/PREETHAM1590/waste-app/core/ledger"
	"github.com/PREETHAM1590/waste-app/core/metrics"
	"github.com/PREETHAM1590/waste-app/core/model"
	"github.com/PREETHAM1590/waste-app/core/reward"
	"github.com/PREETHAM1590/waste-app/core/rewardlog"
	"github.com/PREETHAM1590/waste-app/core/userstats"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

type transferCall struct {
	Recipient string
	Amount    int64
	Reason    string
}

type fakeLedger struct {
	mu      sync.Mutex
	calls   []transferCall
	failFor map[string]bool
	gate    chan struct{}
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{failFor: make(map[string]bool)}
}

func (f *fakeLedger) Transfer(ctx context.Context, recipient string, amount int64, reason string) (ledgerapi.TransferResult, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ledgerapi.TransferResult{Error: ctx.Err().Error()}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, transferCall{Recipient: recipient, Amount: amount, Reason: reason})
	if f.failFor[recipient] {
		return ledgerapi.TransferResult{Success: false, Error: "simulated failure"}, nil
	}
	return ledgerapi.TransferResult{Success: true, TxRef: "tx-ok"}, nil
}

func (f *fakeLedger) Calls() []transferCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]transferCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeLedger) BalanceOf(context.Context, string) (int64, error) { return 0, nil }
func (f *fakeLedger) EstimateFee(context.Context, string, int64) (ledgerapi.FeeEstimate, error) {
	return ledgerapi.FeeEstimate{}, nil
}
func (f *fakeLedger) IsValidAddress(address string) bool { return address != "" }
func (f *fakeLedger) Close() error                       { return nil }

type fakeSink struct {
	mu      sync.Mutex
	results []metrics.DistributionResult
	flushes []metrics.FlushEvent
	depths  []int
}

func (s *fakeSink) RecordDistribution(res []metrics.DistributionResult) error {
	s.mu.Lock()
	s.results = append(s.results, res...)
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) RecordQueueDepth(depth int) error {
	s.mu.Lock()
	s.depths = append(s.depths, depth)
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) RecordFlush(ev metrics.FlushEvent) error {
	s.mu.Lock()
	s.flushes = append(s.flushes, ev)
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) flushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flushes)
}

func (s *fakeSink) recordedDepths() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.depths))
	copy(out, s.depths)
	return out
}

type memLogStore struct {
	mu   sync.Mutex
	recs []rewardlog.Record
}

func (m *memLogStore) Append(_ context.Context, r rewardlog.Record) error {
	m.mu.Lock()
	m.recs = append(m.recs, r)
	m.mu.Unlock()
	return nil
}

func (m *memLogStore) Query(_ context.Context, _ rewardlog.Query) ([]rewardlog.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]rewardlog.Record, len(m.recs))
	copy(out, m.recs)
	return out, nil
}

func (m *memLogStore) Close() error { return nil }

func newTestOrchestrator(t *testing.T, cfg Config, led *fakeLedger, sink *fakeSink, provider *userstats.MemoryProvider) *Orchestrator {
	t.Helper()
	if provider == nil {
		provider = userstats.NewMemoryProvider()
	}
	guard := eligibility.NewGuard(nil, nil)
	o, err := New(reward.Calculator{}, guard, led, provider, cfg, sink, nil, nopLogger{})
	require.NoError(t, err)
	return o
}

// weekday returns a timestamp outside every seasonal window.
func weekday() time.Time {
	return time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(reward.Calculator{}, nil, newFakeLedger(), userstats.NewMemoryProvider(), Config{}, nil, nil, nopLogger{})
	require.Error(t, err)
}

func TestSubmitScanQueued(t *testing.T) {
	led := newFakeLedger()
	o := newTestOrchestrator(t, Config{}, led, &fakeSink{}, nil)

	res := o.SubmitScan(context.Background(), model.ScanActivity{
		UserID:          "u1",
		WalletAddress:   "wallet-1",
		ItemType:        "plastic_bottle",
		IsCorrect:       true,
		Confidence:      0.95,
		SessionDuration: 12 * time.Second,
		Timestamp:       weekday(),
	})

	// Default stats: (1.2+1.0+1.4+2.0)/4 = 1.4, 15*1.4 = 21.
	require.Equal(t, OutcomeQueued, res.Outcome)
	require.Equal(t, int64(21), res.TokensAwarded)
	require.Empty(t, led.Calls())
	require.Equal(t, 1, o.QueueStatus().Length)

	// Queued rewards do not count as processed.
	require.Equal(t, int64(0), o.Stats().TotalRewardsProcessed)
}

func TestSubmitScanHighValueDispatchesImmediately(t *testing.T) {
	led := newFakeLedger()
	provider := userstats.NewMemoryProvider()
	provider.SetStats("u1", model.PerformanceStats{
		AverageAccuracy: 100, CurrentStreak: 100, DailyAverage: 10, Consistency: 95,
	})
	o := newTestOrchestrator(t, Config{}, led, &fakeSink{}, provider)

	// 35 base-scored tokens * 3.0 Earth Day week = 105 > 100.
	res := o.SubmitScan(context.Background(), model.ScanActivity{
		UserID:          "u1",
		WalletAddress:   "wallet-1",
		ItemType:        "glass_jar",
		IsCorrect:       true,
		Confidence:      0.95,
		SessionDuration: 12 * time.Second,
		Timestamp:       time.Date(2025, 4, 21, 12, 0, 0, 0, time.UTC),
	})

	require.Equal(t, OutcomeDispatched, res.Outcome)
	require.Equal(t, int64(105), res.TokensAwarded)
	require.NotEmpty(t, res.TxRef)
	require.Equal(t, 0, o.QueueStatus().Length)

	calls := led.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "wallet-1", calls[0].Recipient)
	require.Equal(t, int64(105), calls[0].Amount)
	require.Contains(t, calls[0].Reason, "glass_jar")

	st := o.Stats()
	require.Equal(t, int64(1), st.TotalRewardsProcessed)
	require.Equal(t, int64(105), st.TotalTokensDistributed)
	require.Equal(t, 1.0, st.DistributionSuccessRate)
}

func TestSubmitScanVIPDispatchesImmediately(t *testing.T) {
	led := newFakeLedger()
	provider := userstats.NewMemoryProvider()
	stats := userstats.DefaultStats()
	stats.Level = model.LevelVIP
	provider.SetStats("vip-user", stats)
	o := newTestOrchestrator(t, Config{}, led, &fakeSink{}, provider)

	res := o.SubmitScan(context.Background(), model.ScanActivity{
		UserID:          "vip-user",
		WalletAddress:   "wallet-vip",
		IsCorrect:       true,
		Confidence:      0.5,
		SessionDuration: 12 * time.Second,
		Timestamp:       weekday(),
	})

	require.Equal(t, OutcomeDispatched, res.Outcome)
	require.Len(t, led.Calls(), 1)
}

func TestSubmitScanRejected(t *testing.T) {
	led := newFakeLedger()
	provider := userstats.NewMemoryProvider()
	now := weekday()
	hist := model.UserHistory{}
	for i := 0; i < 6; i++ {
		hist.RecentActivities = append(hist.RecentActivities, model.ActivityRecord{Timestamp: now.Add(-time.Duration(i+1) * time.Second)})
	}
	provider.SetHistory("u1", hist)
	o := newTestOrchestrator(t, Config{}, led, &fakeSink{}, provider)

	res := o.SubmitScan(context.Background(), model.ScanActivity{
		UserID:          "u1",
		WalletAddress:   "wallet-1",
		IsCorrect:       true,
		Confidence:      0.97,
		SessionDuration: 3 * time.Second,
		Timestamp:       now,
	})

	require.Equal(t, OutcomeRejected, res.Outcome)
	require.Equal(t, int64(0), res.TokensAwarded)
	require.Empty(t, led.Calls())
	require.Equal(t, 0, o.QueueStatus().Length)
	require.Equal(t, int64(0), o.Stats().TotalRewardsProcessed)
}

func TestSubmitStreak(t *testing.T) {
	led := newFakeLedger()
	o := newTestOrchestrator(t, Config{}, led, &fakeSink{}, nil)

	res := o.SubmitStreak(context.Background(), model.StreakActivity{
		UserID:        "u1",
		WalletAddress: "wallet-1",
		CurrentStreak: 30,
		StreakType:    model.StreakDaily,
	})
	require.Equal(t, OutcomeDispatched, res.Outcome)
	require.Equal(t, int64(520), res.TokensAwarded)

	calls := led.Calls()
	require.Len(t, calls, 1)
	require.Contains(t, calls[0].Reason, "30-day recycling streak")
}

func TestSubmitStreakNoReward(t *testing.T) {
	led := newFakeLedger()
	o := newTestOrchestrator(t, Config{}, led, &fakeSink{}, nil)

	res := o.SubmitStreak(context.Background(), model.StreakActivity{
		UserID:        "u1",
		WalletAddress: "wallet-1",
		CurrentStreak: 14,
		StreakType:    model.StreakWeekly,
	})
	require.Equal(t, OutcomeNone, res.Outcome)
	require.Empty(t, led.Calls())
}

func TestSubmitAchievement(t *testing.T) {
	led := newFakeLedger()
	o := newTestOrchestrator(t, Config{}, led, &fakeSink{}, nil)

	res := o.SubmitAchievement(context.Background(), model.AchievementActivity{
		UserID:        "u1",
		WalletAddress: "wallet-1",
		Category:      "community",
		Milestone:     50,
		IsRare:        true,
	})
	require.Equal(t, OutcomeDispatched, res.Outcome)
	require.Equal(t, int64(2500), res.TokensAwarded)
	require.True(t, strings.Contains(res.Reason, "RARE"))
}

func TestSubmitCommunityAlwaysQueued(t *testing.T) {
	led := newFakeLedger()
	o := newTestOrchestrator(t, Config{HighValueThreshold: 100}, led, &fakeSink{}, nil)

	// 150 tokens exceeds the high-value threshold, but community rewards
	// always ride the batch.
	res := o.SubmitCommunity(context.Background(), model.CommunityActivity{
		UserID:           "u1",
		WalletAddress:    "wallet-1",
		ActivityKind:     "mentoring",
		Impact:           "high",
		ContributorLevel: "expert",
	})
	require.Equal(t, OutcomeQueued, res.Outcome)
	require.Equal(t, int64(150), res.TokensAwarded)
	require.Empty(t, led.Calls())
	require.Equal(t, 1, o.QueueStatus().Length)
}

func TestSubmitBatch(t *testing.T) {
	led := newFakeLedger()
	o := newTestOrchestrator(t, Config{}, led, &fakeSink{}, nil)

	results := o.SubmitBatch(context.Background(), []model.BatchActivity{
		{UserID: "u1", Type: model.ActivityStreak, Streak: &model.StreakActivity{WalletAddress: "w1", CurrentStreak: 7, StreakType: model.StreakDaily}},
		{UserID: "u2", Type: model.ActivityStreak, Streak: &model.StreakActivity{WalletAddress: "w2", CurrentStreak: 14, StreakType: model.StreakWeekly}},
		{UserID: "u3", Type: model.ActivityAchievement, Achievement: &model.AchievementActivity{WalletAddress: "w3", Category: "recycling", Milestone: 10}},
	})

	require.Len(t, results, 3)
	require.Equal(t, OutcomeDispatched, results[0].Outcome)
	require.Equal(t, int64(120), results[0].TokensAwarded)
	require.Equal(t, OutcomeNone, results[1].Outcome)
	require.Equal(t, OutcomeDispatched, results[2].Outcome)
	require.Len(t, led.Calls(), 2)
}

func TestDispatchFailure(t *testing.T) {
	led := newFakeLedger()
	led.failFor["wallet-1"] = true
	o := newTestOrchestrator(t, Config{}, led, &fakeSink{}, nil)

	res := o.SubmitStreak(context.Background(), model.StreakActivity{
		UserID:        "u1",
		WalletAddress: "wallet-1",
		CurrentStreak: 7,
		StreakType:    model.StreakDaily,
	})
	require.Equal(t, OutcomeFailed, res.Outcome)
	require.Empty(t, res.TxRef)
	require.NotEmpty(t, res.Error)

	st := o.Stats()
	require.Equal(t, int64(1), st.TotalRewardsProcessed)
	require.Equal(t, int64(0), st.TotalTokensDistributed)
	require.Equal(t, 0.0, st.DistributionSuccessRate)
}
