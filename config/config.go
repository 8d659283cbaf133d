// Package config loads the lineplan configuration file.
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

	"github.com/kilianp07/lineplan/core/fulfillment"
	"github.com/kilianp07/lineplan/core/metrics"
	"github.com/kilianp07/lineplan/core/monitoring"
	"github.com/kilianp07/lineplan/core/planlog"
	"github.com/kilianp07/lineplan/core/scheduler"
	"github.com/kilianp07/lineplan/core/staffing"
	"github.com/kilianp07/lineplan/infra/kafka"
	"github.com/kilianp07/lineplan/infra/mqtt"
	"github.com/kilianp07/lineplan/infra/tracing"
)

// EnvPrefix marks environment variables that override file settings.
// LINEPLAN_STORE__PATH sets store.path.
const EnvPrefix = "LINEPLAN_"

type Config struct {
	Log         LogConfig          `json:"log"`
	Store       StoreConfig        `json:"store"`
	Scheduler   scheduler.Config   `json:"scheduler"`
	Staffing    staffing.Config    `json:"staffing"`
	Fulfillment fulfillment.Config `json:"fulfillment"`
	PlanLog     planlog.Config     `json:"plan_log"`
	Metrics     metrics.Config     `json:"metrics"`
	Publish     PublishConfig      `json:"publish"`
	Sentry      monitoring.Config  `json:"sentry"`
	Tracing     tracing.Config     `json:"tracing"`
}

// PublishConfig lists the downstream transports for committed plans.
type PublishConfig struct {
	MQTT  mqtt.Config  `json:"mqtt"`
	Kafka kafka.Config `json:"kafka"`
}

// Load reads path (yaml or json, by extension), applies LINEPLAN_ environment
// overrides, fills defaults and validates. An empty path yields the defaults
// plus environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every unset section.
func (c *Config) SetDefaults() {
	c.Log.SetDefaults()
	c.Store.SetDefaults()
	c.Scheduler.SetDefaults()
	c.Staffing.SetDefaults()
	c.Fulfillment.SetDefaults()
	c.Publish.Kafka.SetDefaults()
	c.Tracing.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	switch c.PlanLog.Backend {
	case "", "none", "jsonl", "rotating", "sqlite":
	default:
		return fmt.Errorf("plan_log: unknown backend %q", c.PlanLog.Backend)
	}
	if c.PlanLog.Backend != "" && c.PlanLog.Backend != "none" && c.PlanLog.Path == "" {
		return fmt.Errorf("plan_log: path is required for backend %q", c.PlanLog.Backend)
	}
	if err := c.Fulfillment.Validate(); err != nil {
		return fmt.Errorf("fulfillment: %w", err)
	}
	if err := c.Publish.MQTT.Validate(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := c.Publish.Kafka.Validate(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return nil
}
