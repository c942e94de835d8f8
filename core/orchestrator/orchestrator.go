// Package orchestrator decides how computed rewards reach the ledger:
// immediately on the submitting call, or through a batched queue that is
// flushed on demand and grouped by recipient to keep transfer costs down.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PREETHAM1590/waste-app/core/eligibility"
	"github.com/PREETHAM1590/waste-app/core/events"
	"github.com/PREETHAM1590/waste-app/core/ledger"
	"github.com/PREETHAM1590/waste-app/core/logger"
	"github.com/PREETHAM1590/waste-app/core/metrics"
	"github.com/PREETHAM1590/waste-app/core/model"
	"github.com/PREETHAM1590/waste-app/core/reward"
	"github.com/PREETHAM1590/waste-app/core/rewardlog"
	"github.com/PREETHAM1590/waste-app/core/userstats"
	"github.com/PREETHAM1590/waste-app/internal/eventbus"
)

// Outcome classifies the result of a submission.
type Outcome string

const (
	// OutcomeDispatched means the reward was transferred synchronously.
	OutcomeDispatched Outcome = "dispatched"
	// OutcomeQueued means the reward awaits the next batch flush.
	OutcomeQueued Outcome = "queued"
	// OutcomeRejected means the eligibility gate (or an internal fault)
	// stopped the reward before any dispatch.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means the reward was accepted but the ledger transfer
	// did not complete.
	OutcomeFailed Outcome = "failed"
	// OutcomeNone means the activity earned no tokens.
	OutcomeNone Outcome = "none"
)

// SubmitResult is the structured outcome of one submission. Callers must
// inspect Outcome; absence of Error alone does not imply a transfer
// happened.
type SubmitResult struct {
	UserID        string             `json:"user_id"`
	Outcome       Outcome            `json:"outcome"`
	TokensAwarded int64              `json:"tokens_awarded"`
	TxRef         string             `json:"tx_ref,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	Error         string             `json:"error,omitempty"`
	Breakdown     map[string]int64   `json:"breakdown,omitempty"`
	Multipliers   map[string]float64 `json:"multipliers,omitempty"`
}

// QueueEntry is a reward awaiting batched dispatch. Entries are immutable
// once created.
type QueueEntry struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Wallet      string             `json:"wallet"`
	Tokens      int64              `json:"tokens"`
	Activity    model.ActivityType `json:"activity"`
	Reason      string             `json:"reason"`
	Breakdown   map[string]int64   `json:"breakdown,omitempty"`
	Multipliers map[string]float64 `json:"multipliers,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	QueuedAt    time.Time          `json:"queued_at"`
}

// QueueStatus describes the pending queue.
type QueueStatus struct {
	Length         int        `json:"length"`
	Flushing       bool       `json:"flushing"`
	OldestQueuedAt *time.Time `json:"oldest_queued_at,omitempty"`
}

// Stats aggregates completed dispatch attempts. Queued-but-undispatched
// amounts are not counted.
type Stats struct {
	TotalTokensDistributed  int64   `json:"total_tokens_distributed"`
	TotalRewardsProcessed   int64   `json:"total_rewards_processed"`
	DistributionSuccessRate float64 `json:"distribution_success_rate"`
}

// Orchestrator owns the pending-reward queue and routes rewards to the
// ledger. Construct instances with New; there is no process-wide singleton.
type Orchestrator struct {
	calc     reward.Calculator
	guard    *eligibility.Guard
	client   ledger.Client
	provider userstats.Provider
	cfg      Config
	sink     metrics.MetricsSink
	bus      eventbus.EventBus
	log      logger.Logger
	store    rewardlog.Store

	mu                sync.Mutex
	queue             []QueueEntry
	flushing          bool
	tokensDistributed int64
	rewardsProcessed  int64
	successCount      int64
}

// New creates an Orchestrator. The guard, ledger client, stats provider and
// logger are required; sink and bus may be nil.
func New(calc reward.Calculator, guard *eligibility.Guard, client ledger.Client, provider userstats.Provider, cfg Config, sink metrics.MetricsSink, bus eventbus.EventBus, log logger.Logger) (*Orchestrator, error) {
	if guard == nil || client == nil || provider == nil || log == nil {
		return nil, fmt.Errorf("orchestrator: nil parameter provided to New")
	}
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Orchestrator{
		calc:     calc,
		guard:    guard,
		client:   client,
		provider: provider,
		cfg:      cfg,
		sink:     sink,
		bus:      bus,
		log:      log,
	}, nil
}

// SetLogStore configures the store receiving one record per processed
// reward entry. Writes are fire-and-forget.
func (o *Orchestrator) SetLogStore(store rewardlog.Store) {
	o.mu.Lock()
	o.store = store
	o.mu.Unlock()
}

// SubmitScan scores a recycling scan, applies the seasonal bonus, runs the
// eligibility gate and either dispatches immediately (high-value rewards and
// vip users) or enqueues for the next batch flush.
func (o *Orchestrator) SubmitScan(ctx context.Context, scan model.ScanActivity) SubmitResult {
	stats, err := o.provider.Stats(ctx, scan.UserID)
	if err != nil {
		return o.rejectInternal(scan.UserID, model.ActivityScan, err)
	}

	res := o.calc.ScoreScan(scan, stats)
	seasonal := reward.SeasonalMultiplier(scan.Timestamp)
	tokens := int64(math.Floor(float64(res.TotalTokens) * seasonal))

	multipliers := make(map[string]float64, len(res.Multipliers)+1)
	for k, v := range res.Multipliers {
		multipliers[k] = v
	}
	multipliers[reward.MultiplierSeasonal] = seasonal

	if o.bus != nil {
		o.bus.Publish(events.ScoredEvent{UserID: scan.UserID, Activity: model.ActivityScan, Tokens: tokens})
	}

	history, err := o.provider.History(ctx, scan.UserID)
	if err != nil {
		return o.rejectInternal(scan.UserID, model.ActivityScan, err)
	}
	decision := o.guard.Evaluate(scan, history)
	if o.bus != nil {
		o.bus.Publish(events.EligibilityEvent{UserID: scan.UserID, Accepted: decision.Accepted, Flags: decision.Flags})
	}
	if !decision.Accepted {
		rewardsProcessed.WithLabelValues(model.ActivityScan.String(), string(OutcomeRejected)).Inc()
		return SubmitResult{
			UserID:  scan.UserID,
			Outcome: OutcomeRejected,
			Reason:  "activity failed eligibility checks",
		}
	}

	entry := QueueEntry{
		ID:          uuid.NewString(),
		UserID:      scan.UserID,
		Wallet:      scan.WalletAddress,
		Tokens:      tokens,
		Activity:    model.ActivityScan,
		Reason:      fmt.Sprintf("Recycling %s - %d%% confidence", scan.ItemType, int(math.Round(scan.Confidence*100))),
		Breakdown:   res.Breakdown,
		Multipliers: multipliers,
		Timestamp:   scan.Timestamp,
	}

	if tokens > o.cfg.HighValueThreshold || stats.Level == model.LevelVIP {
		return o.dispatchImmediate(ctx, entry)
	}

	o.enqueue(entry)
	return SubmitResult{
		UserID:        scan.UserID,
		Outcome:       OutcomeQueued,
		TokensAwarded: tokens,
		Reason:        entry.Reason,
		Breakdown:     res.Breakdown,
		Multipliers:   multipliers,
	}
}

// SubmitStreak dispatches streak rewards immediately so the user sees the
// payout with the milestone. Streaks that earn nothing return OutcomeNone.
func (o *Orchestrator) SubmitStreak(ctx context.Context, st model.StreakActivity) SubmitResult {
	res := o.calc.ScoreStreak(st)
	if o.bus != nil {
		o.bus.Publish(events.ScoredEvent{UserID: st.UserID, Activity: model.ActivityStreak, Tokens: res.TotalTokens})
	}
	if res.TotalTokens == 0 {
		return SubmitResult{UserID: st.UserID, Outcome: OutcomeNone, Reason: "no streak reward earned"}
	}

	reason := fmt.Sprintf("%d-day recycling streak", st.CurrentStreak)
	if st.IsNewRecord {
		reason += " (New Record!)"
	}
	return o.dispatchImmediate(ctx, QueueEntry{
		ID:        uuid.NewString(),
		UserID:    st.UserID,
		Wallet:    st.WalletAddress,
		Tokens:    res.TotalTokens,
		Activity:  model.ActivityStreak,
		Reason:    reason,
		Breakdown: res.Breakdown,
		Timestamp: time.Now(),
	})
}

// SubmitAchievement dispatches achievement rewards immediately.
func (o *Orchestrator) SubmitAchievement(ctx context.Context, a model.AchievementActivity) SubmitResult {
	res := o.calc.ScoreAchievement(a)
	if o.bus != nil {
		o.bus.Publish(events.ScoredEvent{UserID: a.UserID, Activity: model.ActivityAchievement, Tokens: res.TotalTokens})
	}

	reason := fmt.Sprintf("Achievement Unlocked: %s milestone %d", a.Category, a.Milestone)
	if a.IsRare {
		reason += " (RARE!)"
	}
	return o.dispatchImmediate(ctx, QueueEntry{
		ID:          uuid.NewString(),
		UserID:      a.UserID,
		Wallet:      a.WalletAddress,
		Tokens:      res.TotalTokens,
		Activity:    model.ActivityAchievement,
		Reason:      reason,
		Breakdown:   res.Breakdown,
		Multipliers: res.Multipliers,
		Timestamp:   time.Now(),
	})
}

// SubmitCommunity always enqueues; community rewards ride the next batch.
func (o *Orchestrator) SubmitCommunity(_ context.Context, c model.CommunityActivity) SubmitResult {
	res := o.calc.ScoreCommunity(c)
	if o.bus != nil {
		o.bus.Publish(events.ScoredEvent{UserID: c.UserID, Activity: model.ActivityCommunity, Tokens: res.TotalTokens})
	}

	entry := QueueEntry{
		ID:          uuid.NewString(),
		UserID:      c.UserID,
		Wallet:      c.WalletAddress,
		Tokens:      res.TotalTokens,
		Activity:    model.ActivityCommunity,
		Reason:      fmt.Sprintf("Community contribution: %s", c.ActivityKind),
		Breakdown:   res.Breakdown,
		Multipliers: res.Multipliers,
		Timestamp:   time.Now(),
	}
	o.enqueue(entry)
	return SubmitResult{
		UserID:        c.UserID,
		Outcome:       OutcomeQueued,
		TokensAwarded: res.TotalTokens,
		Reason:        entry.Reason,
		Breakdown:     res.Breakdown,
		Multipliers:   res.Multipliers,
	}
}

// SubmitBatch scores a sequence of activities and dispatches every non-zero
// reward immediately. The result order matches the input order.
func (o *Orchestrator) SubmitBatch(ctx context.Context, activities []model.BatchActivity) []SubmitResult {
	scored := o.calc.ScoreBatch(activities)
	results := make([]SubmitResult, len(scored))
	for i, sc := range scored {
		if sc.TotalTokens == 0 {
			results[i] = SubmitResult{UserID: sc.UserID, Outcome: OutcomeNone}
			continue
		}
		results[i] = o.dispatchImmediate(ctx, QueueEntry{
			ID:          uuid.NewString(),
			UserID:      sc.UserID,
			Wallet:      activities[i].Wallet(),
			Tokens:      sc.TotalTokens,
			Activity:    activities[i].Type,
			Reason:      fmt.Sprintf("Batch reward: %s", activities[i].Type),
			Breakdown:   sc.Breakdown,
			Multipliers: sc.Multipliers,
			Timestamp:   time.Now(),
		})
	}
	return results
}

// enqueue appends the entry and triggers one asynchronous flush when the
// queue length crosses the threshold. The length check and the append happen
// under the same lock, so overlapping submissions cannot both observe the
// crossing.
func (o *Orchestrator) enqueue(entry QueueEntry) {
	entry.QueuedAt = time.Now()

	o.mu.Lock()
	o.queue = append(o.queue, entry)
	depth := len(o.queue)
	trigger := depth == o.cfg.FlushThreshold && !o.flushing
	o.mu.Unlock()

	queueDepth.Set(float64(depth))
	if qr, ok := o.sink.(metrics.QueueDepthRecorder); ok {
		if err := qr.RecordQueueDepth(depth); err != nil {
			o.log.Errorf("queue depth metrics error: %v", err)
		}
	}
	if trigger {
		o.log.Infof("queue reached %d entries, triggering flush", depth)
		go o.Flush(context.Background())
	}
}

// Flush drains the queue and issues one ledger transfer per recipient for
// the summed amount of that recipient's entries. It is a no-op when a flush
// is already running or the queue is empty; a dropped trigger is picked up
// by the next threshold crossing or timer tick. The flushing flag is held
// for the whole operation and released on every exit path.
func (o *Orchestrator) Flush(ctx context.Context) {
	o.mu.Lock()
	if o.flushing || len(o.queue) == 0 {
		o.mu.Unlock()
		return
	}
	o.flushing = true
	batch := o.queue
	o.queue = nil
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.flushing = false
		o.mu.Unlock()
	}()

	start := time.Now()
	queueDepth.Set(0)
	if qr, ok := o.sink.(metrics.QueueDepthRecorder); ok {
		if err := qr.RecordQueueDepth(0); err != nil {
			o.log.Errorf("queue depth metrics error: %v", err)
		}
	}
	o.log.Infof("flushing %d queued rewards", len(batch))

	// Group by recipient, preserving first-seen order for deterministic
	// transfer sequencing.
	groups := make(map[string][]QueueEntry)
	var order []string
	for _, e := range batch {
		if _, ok := groups[e.Wallet]; !ok {
			order = append(order, e.Wallet)
		}
		groups[e.Wallet] = append(groups[e.Wallet], e)
	}

	var recs []metrics.DistributionResult
	for _, wallet := range order {
		entries := groups[wallet]
		var total int64
		for _, e := range entries {
			total += e.Tokens
		}

		res, err := o.client.Transfer(ctx, wallet, total, fmt.Sprintf("Batch reward: %d activities", len(entries)))
		ok := err == nil && res.Success
		if ok {
			ledgerSuccess.Inc()
		} else {
			ledgerFailure.Inc()
			o.log.Warnf("batch transfer to %s failed: %s", wallet, transferError(res, err))
		}

		// A failure for one recipient must not abort the others.
		for _, e := range entries {
			o.recordProcessed(ctx, e, ok, res.TxRef, transferError(res, err), true)
			recs = append(recs, metrics.DistributionResult{
				UserID:   e.UserID,
				Wallet:   e.Wallet,
				Activity: e.Activity,
				Tokens:   e.Tokens,
				Success:  ok,
				TxRef:    res.TxRef,
				Batched:  true,
				Time:     time.Now(),
			})
		}
	}

	dur := time.Since(start)
	flushDuration.Observe(dur.Seconds())
	if err := o.sink.RecordDistribution(recs); err != nil {
		o.log.Errorf("metrics error: %v", err)
	}
	if fr, ok := o.sink.(metrics.FlushRecorder); ok {
		ev := metrics.FlushEvent{Entries: len(batch), Recipients: len(order), Duration: dur, Time: start}
		if err := fr.RecordFlush(ev); err != nil {
			o.log.Errorf("flush metrics error: %v", err)
		}
	}
	if o.bus != nil {
		o.bus.Publish(events.FlushEvent{Entries: len(batch), Recipients: len(order), Duration: dur})
	}
	o.log.Infof("flush completed: %d entries to %d recipients in %s", len(batch), len(order), dur)
}

// QueueStatus reports the pending queue state.
func (o *Orchestrator) QueueStatus() QueueStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := QueueStatus{Length: len(o.queue), Flushing: o.flushing}
	if len(o.queue) > 0 {
		t := o.queue[0].QueuedAt
		st.OldestQueuedAt = &t
	}
	return st
}

// Stats reports aggregates over completed dispatch attempts.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := Stats{
		TotalTokensDistributed: o.tokensDistributed,
		TotalRewardsProcessed:  o.rewardsProcessed,
	}
	if o.rewardsProcessed > 0 {
		st.DistributionSuccessRate = float64(o.successCount) / float64(o.rewardsProcessed)
	}
	return st
}

// Close releases resources held by the orchestrator.
func (o *Orchestrator) Close() error {
	if o.bus != nil {
		o.bus.Close()
	}
	o.mu.Lock()
	store := o.store
	o.mu.Unlock()
	if store != nil {
		return store.Close()
	}
	return nil
}

// dispatchImmediate performs a synchronous ledger transfer on the submitting
// call.
func (o *Orchestrator) dispatchImmediate(ctx context.Context, entry QueueEntry) SubmitResult {
	res, err := o.client.Transfer(ctx, entry.Wallet, entry.Tokens, entry.Reason)
	ok := err == nil && res.Success
	errMsg := ""
	if ok {
		ledgerSuccess.Inc()
	} else {
		ledgerFailure.Inc()
		errMsg = transferError(res, err)
	}

	o.recordProcessed(ctx, entry, ok, res.TxRef, errMsg, false)
	if serr := o.sink.RecordDistribution([]metrics.DistributionResult{{
		UserID:   entry.UserID,
		Wallet:   entry.Wallet,
		Activity: entry.Activity,
		Tokens:   entry.Tokens,
		Success:  ok,
		TxRef:    res.TxRef,
		Time:     time.Now(),
	}}); serr != nil {
		o.log.Errorf("metrics error: %v", serr)
	}

	out := SubmitResult{
		UserID:        entry.UserID,
		Outcome:       OutcomeDispatched,
		TokensAwarded: entry.Tokens,
		TxRef:         res.TxRef,
		Reason:        entry.Reason,
		Breakdown:     entry.Breakdown,
		Multipliers:   entry.Multipliers,
	}
	if !ok {
		out.Outcome = OutcomeFailed
		out.TxRef = ""
		out.Error = errMsg
	}
	return out
}

// recordProcessed updates aggregates, counters, the reward log and the event
// bus for one completed dispatch attempt.
func (o *Orchestrator) recordProcessed(ctx context.Context, e QueueEntry, ok bool, txRef, errMsg string, batched bool) {
	o.mu.Lock()
	o.rewardsProcessed++
	if ok {
		o.successCount++
		o.tokensDistributed += e.Tokens
	}
	store := o.store
	o.mu.Unlock()

	outcome := OutcomeDispatched
	if !ok {
		outcome = OutcomeFailed
	}
	rewardsProcessed.WithLabelValues(e.Activity.String(), string(outcome)).Inc()
	if ok {
		tokensGranted.WithLabelValues(e.Activity.String()).Add(float64(e.Tokens))
	}

	if store != nil {
		rec := rewardlog.Record{
			Timestamp:   time.Now(),
			UserID:      e.UserID,
			Wallet:      e.Wallet,
			Activity:    e.Activity.String(),
			Tokens:      e.Tokens,
			Reason:      e.Reason,
			Success:     ok,
			TxRef:       txRef,
			Error:       errMsg,
			Batched:     batched,
			Breakdown:   e.Breakdown,
			Multipliers: e.Multipliers,
		}
		if err := store.Append(ctx, rec); err != nil {
			o.log.Errorf("reward log append: %v", err)
		}
	}

	if o.bus != nil {
		var err error
		if errMsg != "" {
			err = fmt.Errorf("%s", errMsg)
		}
		o.bus.Publish(events.DispatchEvent{
			UserID:    e.UserID,
			Wallet:    e.Wallet,
			Activity:  e.Activity,
			Tokens:    e.Tokens,
			Success:   ok,
			TxRef:     txRef,
			Batched:   batched,
			Err:       err,
			Completed: time.Now(),
		})
	}
}

// rejectInternal converts an internal fault into a zero-token rejection. A
// scoring or lookup failure must never produce a partial dispatch.
func (o *Orchestrator) rejectInternal(userID string, activity model.ActivityType, err error) SubmitResult {
	o.log.Errorf("reward submission for %s failed: %v", userID, err)
	rewardsProcessed.WithLabelValues(activity.String(), string(OutcomeRejected)).Inc()
	return SubmitResult{UserID: userID, Outcome: OutcomeRejected, Error: err.Error()}
}

func transferError(res ledger.TransferResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if !res.Success && res.Error != "" {
		return res.Error
	}
	if !res.Success {
		return "transfer unsuccessful"
	}
	return ""
}
