// Package app wires configuration into a running planner.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/lineplan/app/plugins"
	"github.com/kilianp07/lineplan/config"
	"github.com/kilianp07/lineplan/core/capacity"
	"github.com/kilianp07/lineplan/core/fulfillment"
	coremetrics "github.com/kilianp07/lineplan/core/metrics"
	"github.com/kilianp07/lineplan/core/model"
	coremon "github.com/kilianp07/lineplan/core/monitoring"
	"github.com/kilianp07/lineplan/core/notify"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/planlog"
	"github.com/kilianp07/lineplan/core/scheduler"
	"github.com/kilianp07/lineplan/core/solver"
	"github.com/kilianp07/lineplan/core/staffing"
	"github.com/kilianp07/lineplan/core/store"
	"github.com/kilianp07/lineplan/infra/logger"
	"github.com/kilianp07/lineplan/infra/metrics"
	inframon "github.com/kilianp07/lineplan/infra/monitoring"
	"github.com/kilianp07/lineplan/infra/tracing"
	"github.com/kilianp07/lineplan/internal/eventbus"
	"github.com/kilianp07/lineplan/internal/linelock"
)

// busBuffer is large enough for the assignment events of a typical batch.
const busBuffer = 256

// Service holds the planner and everything it reports to.
type Service struct {
	Store        store.Store
	Orchestrator *fulfillment.Orchestrator
	Capacity     *capacity.Calculator
	Staffing     *staffing.Optimizer

	cfg        config.Config
	bus        *eventbus.Bus
	sink       coremetrics.MetricsSink
	planLog    planlog.Store
	monitor    coremon.Monitor
	tracer     *tracing.Provider
	publishers []notify.Publisher
	log        logger.Logger

	cancel    context.CancelFunc
	relayDone <-chan struct{}
	now       func() time.Time
}

// New builds a Service from cfg. Background goroutines (event collector,
// publisher relay, Prometheus endpoint) run until Close.
func New(ctx context.Context, cfg *config.Config) (svc *Service, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	log := logger.New("service")
	s := &Service{cfg: *cfg, log: log, now: time.Now}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	if s.monitor, err = inframon.NewSentryMonitor(cfg.Sentry); err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	if s.tracer, err = tracing.Init(ctx, cfg.Tracing); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	if s.Store, err = plugins.OpenStore(cfg.Store); err != nil {
		return nil, planerr.Storage("open store", err)
	}
	engine, err := solver.New(cfg.Scheduler.Engine)
	if err != nil {
		return nil, planerr.Wrap(planerr.KindConfiguration, "solver engine", err, "engine %q", cfg.Scheduler.Engine.Type)
	}
	if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if s.planLog, err = planlog.Open(cfg.PlanLog); err != nil {
		return nil, fmt.Errorf("plan log: %w", err)
	}

	exact := scheduler.New(engine, cfg.Scheduler, logger.New("scheduler"))
	sequential := scheduler.NewSequential(logger.New("sequential"))
	s.Staffing = staffing.NewOptimizer(engine, s.Store, cfg.Staffing, logger.New("staffing"))
	s.Capacity = capacity.NewCalculator(s.Store, s.Store, cfg.Scheduler.HoursPerUnit, logger.New("capacity"))
	s.Orchestrator, err = fulfillment.New(s.Store, exact, sequential, s.Staffing, cfg.Fulfillment, logger.New("fulfillment"))
	if err != nil {
		return nil, err
	}

	s.bus = eventbus.New(eventbus.WithBuffer(busBuffer))
	s.Orchestrator.SetEventBus(s.bus)
	s.Orchestrator.SetMetricsSink(s.sink)
	s.Orchestrator.SetPlanLog(s.planLog)
	s.Orchestrator.SetMonitor(s.monitor)
	s.Orchestrator.SetLineLocks(&linelock.Set{})

	if s.publishers, err = plugins.OpenPublishers(cfg.Publish, s.monitor); err != nil {
		return nil, err
	}

	bg, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	metrics.StartEventCollector(bg, s.bus, s.sink)
	s.relayDone = notify.Relay(bg, s.bus, s.publishers, logger.New("relay"))
	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(bg, addr); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}
	log.Infow("service ready", map[string]any{
		"store":      cfg.Store.Driver,
		"engine":     engine.Name(),
		"publishers": len(s.publishers),
		"tracing":    s.tracer.Enabled(),
	})
	return s, nil
}

// Seed loads a fixture into the configured store.
func (s *Service) Seed(ctx context.Context, fx store.Fixture) error {
	seeder, ok := s.Store.(store.SeedingStore)
	if !ok {
		return fmt.Errorf("store %T cannot be seeded", s.Store)
	}
	return fx.Seed(ctx, seeder)
}

// Fulfill plans the orders of req.
func (s *Service) Fulfill(ctx context.Context, req fulfillment.Request) (*fulfillment.Plan, error) {
	defer s.monitor.Recover()
	return s.Orchestrator.Fulfill(ctx, req)
}

// CheckCapacity reports capacity over [start,end), optionally for one line.
func (s *Service) CheckCapacity(ctx context.Context, start, end time.Time, lineID int64) (capacity.Report, error) {
	return s.Capacity.Check(ctx, model.Window{Start: start, End: end}, lineID)
}

// Estimate returns when qty units could be finished starting now.
func (s *Service) Estimate(ctx context.Context, qty int) (capacity.Estimate, error) {
	if qty <= 0 {
		return capacity.Estimate{}, planerr.Validation("estimate", "quantity must be positive, got %d", qty)
	}
	return s.Capacity.EstimateCompletion(ctx, qty, s.now())
}

// AssignStaff staffs an already committed schedule with the standard setup
// and production tasks.
func (s *Service) AssignStaff(ctx context.Context, scheduleID int64) (*staffing.Result, error) {
	sched, err := s.Store.Schedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, planerr.Validation("assign staff", "schedule %d not found", scheduleID)
		}
		return nil, planerr.Storage("assign staff", err)
	}
	reqs := fulfillment.DeriveTasks(sched.Duration().Hours(), s.cfg.Fulfillment)
	return s.Staffing.Assign(ctx, sched, reqs)
}

// Workload reports the tracked workload of one staff member.
func (s *Service) Workload(ctx context.Context, staffID int64) (staffing.WorkloadReport, error) {
	return staffing.Workload(ctx, s.Store, staffID, s.now())
}

// Plans queries the plan log.
func (s *Service) Plans(ctx context.Context, q planlog.Query) ([]planlog.Record, error) {
	return s.planLog.Query(ctx, q)
}

// Close stops background work and releases every resource. It is safe to
// call on a partially built Service.
func (s *Service) Close() error {
	var errs []error
	// The relay drains the closed bus before background work is canceled.
	if s.bus != nil {
		s.bus.Close()
		if d := s.bus.Dropped(); d > 0 {
			s.log.Warnw("event bus dropped events", map[string]any{"dropped": d})
		}
	}
	if s.relayDone != nil {
		<-s.relayDone
	}
	if s.cancel != nil {
		s.cancel()
	}
	errs = append(errs, plugins.ClosePublishers(s.publishers))
	if s.planLog != nil {
		errs = append(errs, s.planLog.Close())
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	if s.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, s.tracer.Shutdown(ctx))
		cancel()
	}
	if s.monitor != nil {
		s.monitor.Flush(2 * time.Second)
	}
	return errors.Join(errs...)
}
