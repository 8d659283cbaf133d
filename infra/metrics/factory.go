package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/lineplan/core/factory"
	coremetrics "github.com/kilianp07/lineplan/core/metrics"
)

// influxConf is the conf map of an "influx" sink entry.
type influxConf struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	// Strict fails sink construction when the health check does not pass
	// instead of degrading to a NopSink.
	Strict bool `json:"strict"`
}

func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		s, err := NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
	_ = coremetrics.RegisterMetricsSink("influx", newInfluxFromConf)
}

func newInfluxFromConf(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c influxConf
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	if c.URL == "" || c.Bucket == "" {
		return nil, fmt.Errorf("influx sink: url and bucket are required")
	}
	s := NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket)
	if _, nop := s.(coremetrics.NopSink); nop && c.Strict {
		return nil, fmt.Errorf("influx sink: %s is not healthy", c.URL)
	}
	return s, nil
}
