package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineplan/core/model"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `log:
  level: debug
  format: json
store:
  driver: sqlite
  path: /var/lib/lineplan/plan.db
scheduler:
  solve_timeout_seconds: 5
  engine:
    type: branch_and_bound
fulfillment:
  default_window_days: 14
  setup_hours: 1.5
plan_log:
  backend: rotating
  path: plans.jsonl
  max_size_mb: 5
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: "nop"
publish:
  mqtt:
    enabled: true
    broker: "tcp://localhost:1883"
    client_id: "lineplan"
    qos:
      schedule: 1
  kafka:
    brokers: ["localhost:9092"]
sentry:
  dsn: ""
  environment: test
tracing:
  enabled: false
  sample_rate: 0.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"log.level", cfg.Log.Level, "debug"},
		{"log.format", cfg.Log.Format, "json"},
		{"store.driver", cfg.Store.Driver, "sqlite"},
		{"store.path", cfg.Store.Path, "/var/lib/lineplan/plan.db"},
		{"scheduler.timeout", cfg.Scheduler.SolveTimeoutSeconds, 5.0},
		{"scheduler.engine", cfg.Scheduler.Engine.Type, "branch_and_bound"},
		{"scheduler.hours_per_unit", cfg.Scheduler.HoursPerUnit, model.DefaultHoursPerUnit},
		{"staffing.timeout", cfg.Staffing.SolveTimeoutSeconds > 0, true},
		{"fulfillment.window", cfg.Fulfillment.DefaultWindowDays, 14},
		{"fulfillment.setup", cfg.Fulfillment.SetupHours, 1.5},
		{"fulfillment.level", cfg.Fulfillment.RequiredLevel, model.SkillIntermediate},
		{"plan_log.backend", cfg.PlanLog.Backend, "rotating"},
		{"plan_log.max_size", cfg.PlanLog.MaxSizeMB, 5},
		{"metrics.addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"metrics.sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"mqtt.broker", cfg.Publish.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.qos", cfg.Publish.MQTT.QoS["schedule"], byte(1)},
		{"kafka.topic", cfg.Publish.Kafka.ScheduleTopic, "lineplan.schedules"},
		{"sentry.env", cfg.Sentry.Environment, "test"},
		{"tracing.rate", cfg.Tracing.SampleRate, 0.5},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 30, cfg.Fulfillment.DefaultWindowDays)
	assert.Equal(t, "lineplan", cfg.Tracing.ServiceName)
}

func TestEnvOverride(t *testing.T) {
	path := writeFile(t, "config.json", `{"store": {"driver": "memory"}}`)
	t.Setenv("LINEPLAN_STORE__DRIVER", "sqlite")
	t.Setenv("LINEPLAN_STORE__PATH", "/tmp/lineplan.db")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/lineplan.db", cfg.Store.Path)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown format":   "log:\n  format: xml\n",
		"sqlite no path":   "store:\n  driver: sqlite\n",
		"bad plan log":     "plan_log:\n  backend: csv\n",
		"plan log no path": "plan_log:\n  backend: jsonl\n",
		"mqtt no broker":   "publish:\n  mqtt:\n    enabled: true\n",
		"kafka no brokers": "publish:\n  kafka:\n    enabled: true\n",
		"bad level":        "fulfillment:\n  required_level: guru\n",
		"short default":    "fulfillment:\n  default_window_days: 2\n  min_window_days: 5\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", data))
			assert.Error(t, err)
		})
	}
	_, err := Load(writeFile(t, "c.toml", "x = 1"))
	assert.Error(t, err)
}
