// Package rewardlog persists one record per processed reward entry. The
// orchestrator writes fire-and-forget; nothing on the reward path depends on
// the store's result.
package rewardlog

import (
	"context"
	"fmt"
	"time"

	"github.com/PREETHAM1590/waste-app/core/model"
)

// Record captures one processed reward entry and its dispatch outcome.
type Record struct {
	Timestamp   time.Time          `json:"timestamp"`
	UserID      string             `json:"user_id"`
	Wallet      string             `json:"wallet"`
	Activity    string             `json:"activity"`
	Tokens      int64              `json:"tokens"`
	Reason      string             `json:"reason"`
	Success     bool               `json:"success"`
	TxRef       string             `json:"tx_ref,omitempty"`
	Error       string             `json:"error,omitempty"`
	Batched     bool               `json:"batched"`
	Breakdown   map[string]int64   `json:"breakdown,omitempty"`
	Multipliers map[string]float64 `json:"multipliers,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start    time.Time
	End      time.Time
	UserID   string
	Activity model.ActivityType
	// HasActivity distinguishes "filter on ActivityScan" from "no filter",
	// since ActivityScan is the zero value.
	HasActivity bool
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.UserID != "" && r.UserID != q.UserID {
		return false
	}
	if q.HasActivity && r.Activity != q.Activity.String() {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects and parameterizes the store backend.
type Config struct {
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size (jsonl).
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "rewards.log"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// NewStore builds the store described by cfg.
func NewStore(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		if cfg.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return NewJSONLStore(cfg.Path)
	}
}
