// Package userstats defines the read-only statistics capability the reward
// core consumes. Production deployments back it with the user database; the
// in-memory implementation serves tests and development configs.
package userstats

import (
	"context"
	"sync"
	"time"

	"github.com/PREETHAM1590/waste-app/core/model"
)

// Provider supplies per-user performance snapshots and recent history. The
// core treats both as read-only inputs.
type Provider interface {
	Stats(ctx context.Context, userID string) (model.PerformanceStats, error)
	History(ctx context.Context, userID string) (model.UserHistory, error)
}

// MemoryProvider keeps stats and history in memory. Lookups for unknown
// users return the defaults, so a fresh provider is usable without seeding.
type MemoryProvider struct {
	mu      sync.RWMutex
	stats   map[string]model.PerformanceStats
	history map[string]model.UserHistory
}

// NewMemoryProvider returns an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		stats:   make(map[string]model.PerformanceStats),
		history: make(map[string]model.UserHistory),
	}
}

// DefaultStats is the snapshot returned for users without recorded stats.
func DefaultStats() model.PerformanceStats {
	return model.PerformanceStats{
		AverageAccuracy: 85,
		CurrentStreak:   7,
		DailyAverage:    3,
		Consistency:     80,
		Level:           model.LevelIntermediate,
		TotalRecycled:   150,
	}
}

// DefaultHistory is the history returned for users without recorded
// activity.
func DefaultHistory() model.UserHistory {
	return model.UserHistory{AverageSessionTime: 30 * time.Second}
}

// SetStats stores the snapshot for a user.
func (p *MemoryProvider) SetStats(userID string, stats model.PerformanceStats) {
	p.mu.Lock()
	p.stats[userID] = stats
	p.mu.Unlock()
}

// SetHistory stores the history for a user.
func (p *MemoryProvider) SetHistory(userID string, hist model.UserHistory) {
	p.mu.Lock()
	p.history[userID] = hist
	p.mu.Unlock()
}

// Stats returns the stored snapshot or the defaults.
func (p *MemoryProvider) Stats(_ context.Context, userID string) (model.PerformanceStats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.stats[userID]; ok {
		return s, nil
	}
	return DefaultStats(), nil
}

// History returns the stored history or the defaults.
func (p *MemoryProvider) History(_ context.Context, userID string) (model.UserHistory, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if h, ok := p.history[userID]; ok {
		return h, nil
	}
	return DefaultHistory(), nil
}
