package scheduler

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kilianp07/lineplan/core/logger"
	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/solver"
	"github.com/kilianp07/lineplan/core/timeutil"
)

var tracer = otel.Tracer("github.com/kilianp07/lineplan/core/scheduler")

// Scheduler computes makespan-optimal schedules with an exact engine.
type Scheduler struct {
	engine solver.Engine
	cfg    Config
	log    logger.Logger
}

// New returns a Scheduler using engine. A nil engine behaves like
// solver.Unavailable.
func New(engine solver.Engine, cfg Config, log logger.Logger) *Scheduler {
	if engine == nil {
		engine = solver.Unavailable{}
	}
	cfg.SetDefaults()
	return &Scheduler{engine: engine, cfg: cfg, log: logger.OrNop(log)}
}

// Engine returns the injected solver engine.
func (s *Scheduler) Engine() solver.Engine { return s.engine }

// Schedule places every task on exactly one line inside w, avoiding existing
// schedules, and minimises the makespan. When the engine yields no solution
// the error has kind planerr.KindSolveInfeasible.
func (s *Scheduler) Schedule(ctx context.Context, tasks []model.OrderTask, lines []model.ProductionLine, existing []model.ProductionSchedule, w model.Window) (*Plan, error) {
	const op = "exact schedule"
	w.Start, w.End = timeutil.NormalizeWindow(w.Start, w.End)
	if err := checkInputs(op, tasks, lines, w); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "scheduler.exact")
	defer span.End()
	span.SetAttributes(
		attribute.Int("tasks", len(tasks)),
		attribute.Int("lines", len(lines)),
		attribute.String("engine", s.engine.Name()),
	)

	m := BuildModel(tasks, lines, existing, w)
	s.log.Debugw("exact scheduling model", map[string]any{
		"tasks": len(tasks), "lines": len(lines), "horizon_hours": m.Horizon, "engine": s.engine.Name(),
	})
	sol := s.engine.SolveSchedule(ctx, m, solver.Params{TimeLimit: s.cfg.SolveTimeout()})
	span.SetAttributes(attribute.String("status", sol.Status.String()))
	if !sol.Status.HasSolution() {
		return nil, planerr.Infeasible(op, "solver returned %s", sol.Status).
			WithDetail("status", sol.Status.String()).
			WithDetail("wall_time", sol.Stats.WallTime.String())
	}

	p := &Plan{Window: w, Stats: sol.Stats, Status: StatusFeasible}
	if sol.Status == solver.StatusOptimal {
		p.Status = StatusOptimal
	}
	for t, task := range tasks {
		l := lines[sol.Line[t]]
		start := w.Start.Add(time.Duration(sol.Start[t]) * time.Hour)
		p.Items = append(p.Items, newItem(task, l, start, sol.End[t]-sol.Start[t], w))
	}
	p.MakespanHours = float64(sol.Makespan)
	p.MakespanDays = p.MakespanHours / 24
	s.log.Infof("exact schedule %s: %d items, makespan %.0fh (bound %dh) in %s", p.Status, len(p.Items), p.MakespanHours, sol.Bound, sol.Stats.WallTime)
	return p, nil
}

// BuildModel discretises the problem to whole hours from w.Start. Existing
// schedules that reach into the window block the hours they touch.
func BuildModel(tasks []model.OrderTask, lines []model.ProductionLine, existing []model.ProductionSchedule, w model.Window) solver.ScheduleModel {
	m := solver.ScheduleModel{
		Horizon:   w.WholeHours(),
		Durations: make([][]int, len(tasks)),
		Blocked:   make([][]solver.Interval, len(lines)),
	}
	for t, task := range tasks {
		m.Durations[t] = make([]int, len(lines))
		for l, line := range lines {
			m.Durations[t][l] = DurationOn(task, line)
		}
	}
	index := make(map[int64]int, len(lines))
	for i, l := range lines {
		index[l.ID] = i
	}
	for _, ex := range existing {
		l, ok := index[ex.LineID]
		if !ok {
			continue
		}
		iv, ok := blockedHours(ex, w, m.Horizon)
		if ok {
			m.Blocked[l] = append(m.Blocked[l], iv)
		}
	}
	return m
}

func blockedHours(ex model.ProductionSchedule, w model.Window, horizon int) (solver.Interval, bool) {
	start := timeutil.Normalize(ex.ScheduledStart).Sub(w.Start).Hours()
	end := timeutil.Normalize(ex.ScheduledEnd).Sub(w.Start).Hours()
	iv := solver.Interval{Start: int(math.Floor(start)), End: int(math.Ceil(end))}
	if iv.Start < 0 {
		iv.Start = 0
	}
	if iv.End > horizon {
		iv.End = horizon
	}
	return iv, iv.End > iv.Start
}
