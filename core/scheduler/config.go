package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/lineplan/core/factory"
	"github.com/kilianp07/lineplan/core/model"
)

// DefaultSolveTimeout bounds the exact solve when nothing is configured.
const DefaultSolveTimeout = 30 * time.Second

// Config tunes production scheduling.
type Config struct {
	SolveTimeoutSeconds float64              `json:"solve_timeout_seconds" yaml:"solve_timeout_seconds"`
	HoursPerUnit        float64              `json:"hours_per_unit" yaml:"hours_per_unit"`
	Engine              factory.ModuleConfig `json:"engine" yaml:"engine"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.SolveTimeoutSeconds <= 0 {
		c.SolveTimeoutSeconds = DefaultSolveTimeout.Seconds()
	}
	if c.HoursPerUnit <= 0 {
		c.HoursPerUnit = model.DefaultHoursPerUnit
	}
	if c.Engine.Type == "" {
		c.Engine.Type = "branch_and_bound"
	}
}

// SolveTimeout returns the exact solve budget.
func (c Config) SolveTimeout() time.Duration {
	if c.SolveTimeoutSeconds <= 0 {
		return DefaultSolveTimeout
	}
	return time.Duration(c.SolveTimeoutSeconds * float64(time.Second))
}

// LoadConfig loads a Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close() //nolint:errcheck
	return DecodeConfig(f, strings.TrimPrefix(filepath.Ext(path), "."))
}

// DecodeConfig reads a Config from r in the given format and applies defaults.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, nil
}
