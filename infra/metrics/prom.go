package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/lineplan/core/metrics"
)

// PromSink records plan outcomes in Prometheus metrics.
type PromSink struct {
	plans    *prometheus.CounterVec
	makespan prometheus.Histogram
	skipped  prometheus.Counter
	solves   *prometheus.HistogramVec
	fallback *prometheus.CounterVec
}

// NewPromSink registers plan metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already present on the registerer are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.plans, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineplan_plans_total",
		Help: "Fulfillment runs by outcome status",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.makespan, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineplan_plan_makespan_hours",
		Help:    "Makespan of produced plans in hours",
		Buckets: []float64{4, 8, 24, 48, 96, 168, 336, 720},
	})); err != nil {
		return nil, err
	}
	if s.skipped, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lineplan_items_skipped_total",
		Help: "Order items left out of a plan",
	})); err != nil {
		return nil, err
	}
	if s.solves, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lineplan_solve_duration_seconds",
		Help:    "Wall time of exact solver runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"problem", "status"})); err != nil {
		return nil, err
	}
	if s.fallback, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineplan_fallbacks_total",
		Help: "Heuristic fallbacks applied after an exact solve failed",
	}, []string{"problem"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// RecordPlan counts the run and observes its makespan.
func (s *PromSink) RecordPlan(rec coremetrics.PlanRecord) error {
	s.plans.WithLabelValues(rec.Status).Inc()
	if rec.Items > 0 {
		s.makespan.Observe(rec.MakespanHours)
	}
	if rec.Skipped > 0 {
		s.skipped.Add(float64(rec.Skipped))
	}
	return nil
}

// RecordSolve observes the solver wall time.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(ev.Problem, ev.Status).Observe(ev.Duration.Seconds())
	return nil
}

// RecordFallback counts a heuristic fallback.
func (s *PromSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	s.fallback.WithLabelValues(ev.Problem).Inc()
	return nil
}
