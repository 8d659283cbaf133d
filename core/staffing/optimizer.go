package staffing

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kilianp07/lineplan/core/logger"
	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/solver"
	"github.com/kilianp07/lineplan/core/store"
)

var tracer = otel.Tracer("github.com/kilianp07/lineplan/core/staffing")

// Optimizer assigns the tasks of a schedule to staff under the weekly
// workload ceiling, preferring cheap and skill-matched staff.
type Optimizer struct {
	engine solver.Engine
	staff  store.StaffStore
	match  SkillMatcher
	greedy Greedy
	cfg    Config
	log    logger.Logger
}

// Option customises an Optimizer.
type Option func(*Optimizer)

// WithSkillMatcher replaces DefaultSkillMatcher.
func WithSkillMatcher(m SkillMatcher) Option {
	return func(o *Optimizer) {
		if m != nil {
			o.match = m
		}
	}
}

// NewOptimizer returns an Optimizer reading staff from st.
func NewOptimizer(engine solver.Engine, st store.StaffStore, cfg Config, log logger.Logger, opts ...Option) *Optimizer {
	if engine == nil {
		engine = solver.Unavailable{}
	}
	cfg.SetDefaults()
	o := &Optimizer{engine: engine, staff: st, match: DefaultSkillMatcher, cfg: cfg, log: logger.OrNop(log)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Engine returns the injected solver engine.
func (o *Optimizer) Engine() solver.Engine { return o.engine }

// Solve runs the exact model over staff without committing anything. It
// returns the chosen staff index per requirement and the solver status.
func (o *Optimizer) Solve(ctx context.Context, reqs []Requirement, staff []model.Staff) ([]int, solver.AssignmentSolution) {
	m := solver.AssignmentModel{
		Hours:    make([]float64, len(reqs)),
		Capacity: make([]float64, len(staff)),
		Cost:     make([][]int64, len(reqs)),
	}
	for a, s := range staff {
		m.Capacity[a] = s.RemainingHours()
	}
	for t, r := range reqs {
		m.Hours[t] = r.EstimatedHours
		m.Cost[t] = make([]int64, len(staff))
		for a, s := range staff {
			m.Cost[t][a] = Cost(r, s, o.match(r, s))
		}
	}
	sol := o.engine.SolveAssignment(ctx, m, solver.Params{TimeLimit: o.cfg.SolveTimeout()})
	return sol.Agent, sol
}

// Assign assigns reqs for sched and commits every assignment. When the exact
// solve yields nothing the greedy fallback runs. Requirements that cannot be
// placed are listed in Result.Dropped. If nothing at all is committed the
// returned error has kind planerr.KindUnschedulable and the result is still
// returned with zero assignments.
func (o *Optimizer) Assign(ctx context.Context, sched model.ProductionSchedule, reqs []Requirement) (*Result, error) {
	const op = "staff assignment"
	if len(reqs) == 0 {
		return nil, planerr.Validation(op, "no tasks to assign for schedule %d", sched.ID)
	}
	staff, err := o.staff.AvailableStaff(ctx)
	if err != nil {
		return nil, planerr.Storage(op, err)
	}
	if len(staff) == 0 {
		return nil, planerr.Configuration(op, "no available staff").WithDetail("available_staff", 0)
	}

	ctx, span := tracer.Start(ctx, "staffing.assign")
	defer span.End()
	span.SetAttributes(attribute.Int64("schedule_id", sched.ID), attribute.Int("tasks", len(reqs)), attribute.Int("staff", len(staff)))

	began := time.Now()
	res := &Result{ScheduleID: sched.ID}
	agents, sol := o.Solve(ctx, reqs, staff)
	switch {
	case sol.Status.HasSolution():
		res.Status = StatusFeasible
		if sol.Status == solver.StatusOptimal {
			res.Status = StatusOptimal
		}
		res.Stats.Method = "exact"
	default:
		o.log.Warnw("exact staff assignment failed, using greedy", map[string]any{
			"schedule_id": sched.ID, "status": sol.Status.String(),
		})
		agents = o.greedy.Plan(reqs, staff)
		res.Status = StatusFallback
		res.Stats.Method = "greedy"
	}
	span.SetAttributes(attribute.String("status", res.Status))

	o.commit(ctx, sched, reqs, staff, agents, res)
	res.Stats.SolveTime = time.Since(began)
	res.Stats.TasksAssigned = len(res.Assignments)
	res.Stats.StaffUtilized = countStaff(res.Assignments)

	if len(res.Assignments) == 0 {
		res.Status = StatusFailed
		return res, planerr.Unschedulable(op, "no staff available for assignment (all at capacity)").
			WithDetail("schedule_id", sched.ID).
			WithDetail("available_staff", len(staff))
	}
	if len(res.Dropped) > 0 {
		o.log.Warnw("tasks left unassigned", map[string]any{"schedule_id": sched.ID, "dropped": len(res.Dropped)})
	}
	return res, nil
}

// commit persists the proposed assignments. Tasks of one schedule run back
// to back from the schedule start.
func (o *Optimizer) commit(ctx context.Context, sched model.ProductionSchedule, reqs []Requirement, staff []model.Staff, agents []int, res *Result) {
	cursor := sched.ScheduledStart
	for t, r := range reqs {
		a := -1
		if t < len(agents) {
			a = agents[t]
		}
		if a < 0 {
			res.Dropped = append(res.Dropped, r)
			continue
		}
		s := staff[a]
		end := cursor.Add(time.Duration(r.EstimatedHours * float64(time.Hour)))
		ta, err := o.staff.CommitAssignment(ctx, model.TaskAssignment{
			ScheduleID:    sched.ID,
			StaffID:       s.ID,
			TaskType:      r.TaskType,
			AssignedHours: r.EstimatedHours,
			StartTime:     cursor,
			EndTime:       end,
			Status:        model.AssignmentAssigned,
		})
		if err != nil {
			if !errors.Is(err, store.ErrWorkloadCeiling) {
				o.log.Errorf("commit assignment for schedule %d staff %d: %v", sched.ID, s.ID, err)
			} else {
				o.log.Warnf("staff %d reached the weekly ceiling concurrently, dropping %s task", s.ID, r.TaskType)
			}
			res.Dropped = append(res.Dropped, r)
			continue
		}
		matched := o.match(r, s)
		cost := s.HourlyRate * r.EstimatedHours
		res.Assignments = append(res.Assignments, Assignment{
			TaskAssignment: ta,
			StaffName:      s.Name,
			StaffLevel:     s.SkillLevel,
			SkillMatch:     matched,
			Cost:           cost,
		})
		res.TotalCost += cost
		cursor = end
	}
}

func countStaff(as []Assignment) int {
	seen := make(map[int64]struct{}, len(as))
	for _, a := range as {
		seen[a.StaffID] = struct{}{}
	}
	return len(seen)
}
