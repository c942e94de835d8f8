package orchestrator

// Config tunes the dispatch decisions of the orchestrator.
type Config struct {
	// FlushThreshold is the queue length at which an asynchronous flush is
	// triggered.
	FlushThreshold int `json:"flush_threshold"`
	// HighValueThreshold is the token amount above which a scan reward is
	// dispatched immediately instead of queued.
	HighValueThreshold int64 `json:"high_value_threshold"`
}

// SetDefaults applies the standard thresholds.
func (c *Config) SetDefaults() {
	if c.FlushThreshold <= 0 {
		c.FlushThreshold = 50
	}
	if c.HighValueThreshold <= 0 {
		c.HighValueThreshold = 100
	}
}
