// Package config loads the service configuration from a JSON or YAML file
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/PREETHAM1590/waste-app/core/factory"
	"github.com/PREETHAM1590/waste-app/core/metrics"
	"github.com/PREETHAM1590/waste-app/core/orchestrator"
	"github.com/PREETHAM1590/waste-app/core/rewardlog"
	"github.com/PREETHAM1590/waste-app/infra/mqtt"
)

type Config struct {
	API          APIConfig            `json:"api"`
	Orchestrator orchestrator.Config  `json:"orchestrator"`
	Ledger       factory.ModuleConfig `json:"ledger"`
	Metrics      metrics.Config       `json:"metrics"`
	RewardLog    rewardlog.Config     `json:"reward_log"`
	MQTT         MQTTConfig           `json:"mqtt"`
	Scheduler    SchedulerConfig      `json:"scheduler"`
}

// APIConfig defines the HTTP listener. A non-empty Token puts the
// /api/rewards routes behind bearer-token auth.
type APIConfig struct {
	Address string `json:"address"`
	Token   string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

// MQTTConfig wraps the connector settings with an enable switch; the
// connector is optional and off by default.
type MQTTConfig struct {
	Enabled     bool `json:"enabled"`
	mqtt.Config `json:",squash"`
}

// SchedulerConfig drives the periodic queue flush.
type SchedulerConfig struct {
	// FlushCron is a cron expression; empty disables the timer and leaves
	// flushing to the threshold trigger and the process-queue endpoint.
	FlushCron string `json:"flush_cron"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("WA_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "wa_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.API.SetDefaults()
	cfg.Orchestrator.SetDefaults()
	cfg.RewardLog.SetDefaults()
	if err := cfg.RewardLog.Validate(); err != nil {
		return nil, err
	}
	if cfg.Ledger.Type == "" {
		cfg.Ledger.Type = "mock"
	}
	if cfg.MQTT.Enabled {
		cfg.MQTT.Config.SetDefaults()
		if cfg.MQTT.Broker == "" {
			return nil, fmt.Errorf("mqtt enabled without a broker")
		}
	}
	return &cfg, nil
}
