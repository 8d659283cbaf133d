package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kilianp07/lineplan/core/events"
	"github.com/kilianp07/lineplan/core/logger"
	"github.com/kilianp07/lineplan/core/metrics"
	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/monitoring"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/planlog"
	"github.com/kilianp07/lineplan/core/scheduler"
	"github.com/kilianp07/lineplan/core/staffing"
	"github.com/kilianp07/lineplan/core/store"
	"github.com/kilianp07/lineplan/internal/eventbus"
	"github.com/kilianp07/lineplan/internal/linelock"
)

var tracer = otel.Tracer("github.com/kilianp07/lineplan/core/fulfillment")

// Orchestrator schedules a batch of orders, commits the schedules and staffs
// each of them.
type Orchestrator struct {
	store      store.Store
	exact      *scheduler.Scheduler
	sequential *scheduler.Sequential
	staff      *staffing.Optimizer
	cfg        Config

	locks   *linelock.Set
	bus     eventbus.EventBus
	sink    metrics.MetricsSink
	planLog planlog.Store
	monitor monitoring.Monitor
	log     logger.Logger
	now     func() time.Time
}

// New returns an Orchestrator. Optional collaborators (event bus, metrics
// sink, plan log, monitor) default to no-ops and are set with the Set methods.
func New(st store.Store, exact *scheduler.Scheduler, sequential *scheduler.Sequential, staff *staffing.Optimizer, cfg Config, log logger.Logger) (*Orchestrator, error) {
	if st == nil || exact == nil || sequential == nil || staff == nil {
		return nil, fmt.Errorf("fulfillment: nil parameter provided to New")
	}
	cfg.SetDefaults()
	return &Orchestrator{
		store:      st,
		exact:      exact,
		sequential: sequential,
		staff:      staff,
		cfg:        cfg,
		locks:      &linelock.Set{},
		sink:       metrics.NopSink{},
		planLog:    planlog.NopStore{},
		monitor:    monitoring.NopMonitor{},
		log:        logger.OrNop(log),
		now:        time.Now,
	}, nil
}

// SetEventBus publishes run events on bus.
func (o *Orchestrator) SetEventBus(bus eventbus.EventBus) { o.bus = bus }

// SetMetricsSink records plan and solve outcomes on sink.
func (o *Orchestrator) SetMetricsSink(sink metrics.MetricsSink) {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	o.sink = sink
}

// SetPlanLog appends a record of every run to st.
func (o *Orchestrator) SetPlanLog(st planlog.Store) {
	if st == nil {
		st = planlog.NopStore{}
	}
	o.planLog = st
}

// SetMonitor reports failed runs to m.
func (o *Orchestrator) SetMonitor(m monitoring.Monitor) { o.monitor = monitoring.OrNop(m) }

// SetLineLocks shares a lock set between orchestrators using the same store.
func (o *Orchestrator) SetLineLocks(l *linelock.Set) {
	if l != nil {
		o.locks = l
	}
}

// SetClock overrides the time source used for default windows.
func (o *Orchestrator) SetClock(now func() time.Time) {
	if now != nil {
		o.now = now
	}
}

// Fulfill runs the whole batch. A request with a bad window or no orders is
// rejected before anything is solved. When neither the exact nor the
// sequential scheduler can place an item the error carries diagnostics and
// nothing is committed. Staffing failures are isolated per schedule and
// reported on the plan.
func (o *Orchestrator) Fulfill(ctx context.Context, req Request) (*Plan, error) {
	began := o.now()
	w, err := req.Resolve(began, o.cfg)
	if err != nil {
		o.log.Warnf("fulfillment request rejected: %v", err)
		return nil, err
	}

	p := &Plan{PlanID: uuid.NewString(), Window: w}
	ctx, span := tracer.Start(ctx, "fulfillment.fulfill")
	defer span.End()
	span.SetAttributes(
		attribute.String("plan_id", p.PlanID),
		attribute.Int("orders", len(req.OrderIDs)),
		attribute.String("window_start", w.Start.Format(time.RFC3339)),
		attribute.String("window_end", w.End.Format(time.RFC3339)),
	)
	o.publish(events.BatchEvent{PlanID: p.PlanID, OrderIDs: req.OrderIDs, Window: w})
	o.log.Infow("fulfillment started", map[string]any{
		"plan_id": p.PlanID, "orders": len(req.OrderIDs),
		"start": w.Start.Format(time.RFC3339), "end": w.End.Format(time.RFC3339),
	})

	err = o.run(ctx, p, req)
	p.Duration = o.now().Sub(began)
	o.finish(ctx, p, req, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("status", p.Status), attribute.Int("items", len(p.Items)))
	return p, nil
}

func (o *Orchestrator) run(ctx context.Context, p *Plan, req Request) error {
	const op = "fulfill"
	orders, err := o.store.Orders(ctx, req.OrderIDs)
	if err != nil {
		return planerr.Storage(op, fmt.Errorf("load orders: %w", err))
	}
	if len(orders) == 0 {
		return planerr.Validation(op, "none of the %d requested orders exist", len(req.OrderIDs))
	}
	if len(orders) < len(req.OrderIDs) {
		p.warn("missing_orders", fmt.Sprintf("%d of %d requested orders were not found", len(req.OrderIDs)-len(orders), len(req.OrderIDs)))
	}
	tasks := model.ExpandOrders(orders, o.cfg.HoursPerUnit)
	lines, err := o.store.ActiveLines(ctx)
	if err != nil {
		return planerr.Storage(op, fmt.Errorf("list lines: %w", err))
	}

	lineIDs := make([]int64, len(lines))
	for i, l := range lines {
		lineIDs[i] = l.ID
	}
	unlock, err := o.locks.Lock(ctx, lineIDs...)
	if err != nil {
		return fmt.Errorf("%s: acquire line locks: %w", op, err)
	}
	defer unlock()

	existing, err := o.store.SchedulesInWindow(ctx, p.Window.Start, p.Window.End, 0)
	if err != nil {
		return planerr.Storage(op, fmt.Errorf("list schedules: %w", err))
	}
	sp, err := o.schedule(ctx, p.PlanID, tasks, lines, existing, p.Window)
	if err != nil {
		return err
	}
	p.Status = sp.Status
	p.Skipped = append(p.Skipped, sp.Skipped...)
	if err := o.commitSchedules(ctx, p, sp, tasks); err != nil {
		return err
	}
	unlock()

	if n := len(p.Skipped); n > 0 {
		itemsSkipped.Add(float64(n))
		p.warn(planerr.KindPartialPlacement.String(), fmt.Sprintf("%d of %d items did not fit the window", n, len(tasks)))
		o.log.Warnw("partial placement", map[string]any{"plan_id": p.PlanID, "skipped": n, "tasks": len(tasks)})
	}
	p.OrdersOptimized = countOrders(p.Items)
	p.setMakespan()

	o.assignStaff(ctx, p)
	return nil
}

// schedule tries the exact scheduler and falls back to the sequential one
// only when the exact solve produced no solution.
func (o *Orchestrator) schedule(ctx context.Context, planID string, tasks []model.OrderTask, lines []model.ProductionLine, existing []model.ProductionSchedule, w model.Window) (*scheduler.Plan, error) {
	const op = "fulfill schedule"
	o.publish(events.StrategyEvent{PlanID: planID, Problem: events.ProblemSchedule, Action: events.ActionExactAttempt})
	t0 := time.Now()
	sp, err := o.exact.Schedule(ctx, tasks, lines, existing, w)
	o.recordSolve(planID, events.ProblemSchedule, solveStatus(sp, err), branches(sp), time.Since(t0))
	if err == nil {
		return sp, nil
	}
	if !planerr.Is(err, planerr.KindSolveInfeasible) {
		return nil, err
	}

	exactFailures.WithLabelValues(events.ProblemSchedule).Inc()
	o.publish(events.StrategyEvent{PlanID: planID, Problem: events.ProblemSchedule, Action: events.ActionExactFailure, Err: err})
	o.log.Warnw("exact scheduling found no solution, using sequential fallback", map[string]any{
		"plan_id": planID, "error": err.Error(),
	})
	o.publish(events.StrategyEvent{PlanID: planID, Problem: events.ProblemSchedule, Action: events.ActionSequentialFallback, Err: err})
	trace.SpanFromContext(ctx).AddEvent("sequential_fallback", trace.WithAttributes(attribute.String("exact_error", err.Error())))

	sp, ferr := o.sequential.Schedule(ctx, tasks, lines, existing, w)
	if ferr == nil {
		return sp, nil
	}
	d, ok := planerr.DiagnosticsOf(ferr)
	if !ok {
		d = scheduler.BuildDiagnostics(tasks, lines, w)
	}
	d.SolverStatus = solveStatus(nil, err)
	d.FallbackError = ferr.Error()
	return nil, planerr.Wrap(planerr.KindUnschedulable, op, ferr, "no schedule found by exact or sequential scheduling").
		WithDiagnostics(d)
}

func (o *Orchestrator) commitSchedules(ctx context.Context, p *Plan, sp *scheduler.Plan, tasks []model.OrderTask) error {
	byItem := make(map[int64]model.OrderTask, len(tasks))
	for _, t := range tasks {
		byItem[t.ItemID] = t
	}
	var lastErr error
	for _, it := range sp.Items {
		ps, err := o.store.CreateSchedule(ctx, model.ProductionSchedule{
			OrderID:        it.OrderID,
			LineID:         it.LineID,
			ScheduledStart: it.Start,
			ScheduledEnd:   it.End,
			Status:         model.ScheduleScheduled,
			Notes:          fmt.Sprintf("plan %s item %d", p.PlanID, it.OrderItemID),
		})
		if err != nil {
			lastErr = err
			o.log.Errorf("commit schedule for order %d item %d on line %d: %v", it.OrderID, it.OrderItemID, it.LineID, err)
			p.warn(planerr.KindStorage.String(), fmt.Sprintf("item %d not committed: %v", it.OrderItemID, err))
			if t, ok := byItem[it.OrderItemID]; ok {
				p.Skipped = append(p.Skipped, t)
			}
			continue
		}
		schedulesCommit.Inc()
		p.Items = append(p.Items, Item{Item: it, ScheduleID: ps.ID})
		o.publish(events.ScheduleCommittedEvent{PlanID: p.PlanID, Schedule: ps, ProductName: it.ProductName, Quantity: it.Quantity})
	}
	if len(p.Items) == 0 && lastErr != nil {
		return planerr.Storage("fulfill commit", lastErr)
	}
	return nil
}

func (o *Orchestrator) assignStaff(ctx context.Context, p *Plan) {
	for _, it := range p.Items {
		ps := model.ProductionSchedule{
			ID:             it.ScheduleID,
			OrderID:        it.OrderID,
			LineID:         it.LineID,
			ScheduledStart: it.Start,
			ScheduledEnd:   it.End,
			Status:         model.ScheduleScheduled,
		}
		res, err := o.staff.Assign(ctx, ps, DeriveTasks(it.DurationHours, o.cfg))
		if res != nil {
			o.recordSolve(p.PlanID, events.ProblemAssignment, res.Status, 0, res.Stats.SolveTime)
			if res.Stats.Method == "greedy" {
				exactFailures.WithLabelValues(events.ProblemAssignment).Inc()
				o.publish(events.StrategyEvent{PlanID: p.PlanID, Problem: events.ProblemAssignment, Action: events.ActionGreedyFallback})
			}
			for _, a := range res.Assignments {
				o.publish(events.AssignmentCommittedEvent{PlanID: p.PlanID, Assignment: a.TaskAssignment, StaffName: a.StaffName})
			}
			p.Assignments = append(p.Assignments, res.Assignments...)
			p.TotalCost += res.TotalCost
			for _, r := range res.Dropped {
				p.DroppedTasks = append(p.DroppedTasks, DroppedTask{ScheduleID: it.ScheduleID, Requirement: r})
			}
		}
		if err != nil {
			staffFailures.Inc()
			p.StaffFailures = append(p.StaffFailures, StaffFailure{
				ScheduleID: it.ScheduleID,
				OrderID:    it.OrderID,
				LineID:     it.LineID,
				Kind:       planerr.KindOf(err).String(),
				Error:      err.Error(),
			})
			o.publish(events.StaffFailureEvent{PlanID: p.PlanID, ScheduleID: it.ScheduleID, Err: err})
			trace.SpanFromContext(ctx).AddEvent("staff_failure", trace.WithAttributes(
				attribute.Int64("schedule_id", it.ScheduleID),
				attribute.String("kind", planerr.KindOf(err).String()),
			))
			o.log.Warnw("staff assignment failed", map[string]any{
				"plan_id": p.PlanID, "schedule_id": it.ScheduleID, "error": err.Error(),
			})
		}
	}
	if n := len(p.DroppedTasks); n > 0 {
		p.warn(planerr.KindPartialPlacement.String(), fmt.Sprintf("%d staff tasks could not be assigned", n))
	}
	if n := len(p.StaffFailures); n > 0 {
		p.warn("staff_failure", fmt.Sprintf("%d of %d schedules have no staff", n, len(p.Items)))
	}
}

// finish records the run on every observer. Observer failures are logged only.
func (o *Orchestrator) finish(ctx context.Context, p *Plan, req Request, runErr error) {
	status := p.Status
	var errKind, errMsg string
	if runErr != nil {
		status = StatusFailed
		errKind = planerr.KindOf(runErr).String()
		errMsg = runErr.Error()
		if d, ok := planerr.DiagnosticsOf(runErr); ok {
			o.log.Warnw("fulfillment failed", map[string]any{
				"plan_id": p.PlanID, "error": errMsg,
				"hours_needed": d.TotalHoursNeeded, "hours_available": d.AvailableHours,
				"lines": d.NumProductionLines, "orders": d.NumOrders, "window_days": d.TimeWindowDays,
			})
		} else {
			o.log.Warnf("fulfillment %s failed: %v", p.PlanID, runErr)
		}
		if !planerr.Is(runErr, planerr.KindValidation) && !errors.Is(runErr, context.Canceled) {
			o.monitor.CaptureException(runErr, monitoring.ErrorTags(runErr, map[string]string{"plan_id": p.PlanID}))
		}
	} else {
		o.log.Infow("fulfillment finished", map[string]any{
			"plan_id": p.PlanID, "status": status, "items": len(p.Items), "skipped": len(p.Skipped),
			"assignments": len(p.Assignments), "makespan_hours": p.MakespanHours, "duration": p.Duration.String(),
		})
	}
	runDuration.WithLabelValues(status).Observe(p.Duration.Seconds())

	now := o.now()
	if err := o.sink.RecordPlan(metrics.PlanRecord{
		PlanID:        p.PlanID,
		Status:        status,
		Orders:        len(req.OrderIDs),
		Items:         len(p.Items),
		Skipped:       len(p.Skipped),
		Assignments:   len(p.Assignments),
		StaffFailures: len(p.StaffFailures),
		MakespanHours: p.MakespanHours,
		TotalCost:     p.TotalCost,
		Duration:      p.Duration,
		Err:           errMsg,
		Time:          now,
	}); err != nil {
		o.log.Errorf("record plan metrics: %v", err)
	}

	warnings := make([]string, len(p.Warnings))
	for i, w := range p.Warnings {
		warnings[i] = w.Kind + ": " + w.Message
	}
	if err := o.planLog.Append(ctx, planlog.Record{
		Timestamp:     now,
		PlanID:        p.PlanID,
		Status:        status,
		OrderIDs:      req.OrderIDs,
		Window:        p.Window,
		ScheduleIDs:   p.ScheduleIDs(),
		Items:         len(p.Items),
		Skipped:       len(p.Skipped),
		MakespanHours: p.MakespanHours,
		Assignments:   len(p.Assignments),
		TotalCost:     p.TotalCost,
		Warnings:      warnings,
		ErrorKind:     errKind,
		Error:         errMsg,
	}); err != nil {
		o.log.Errorf("append plan log: %v", err)
	}

	o.publish(events.PlanCompletedEvent{
		PlanID:   p.PlanID,
		Status:   status,
		Items:    len(p.Items),
		Skipped:  len(p.Skipped),
		Duration: p.Duration,
		Err:      runErr,
	})
}

func (o *Orchestrator) recordSolve(planID, problem, status string, branches int64, d time.Duration) {
	rec, ok := o.sink.(metrics.SolveRecorder)
	if !ok {
		return
	}
	engine := o.exact.Engine().Name()
	if problem == events.ProblemAssignment {
		engine = o.staff.Engine().Name()
	}
	if err := rec.RecordSolve(metrics.SolveEvent{
		PlanID:   planID,
		Problem:  problem,
		Engine:   engine,
		Status:   status,
		Branches: branches,
		Duration: d,
		Time:     o.now(),
	}); err != nil {
		o.log.Errorf("record solve metrics: %v", err)
	}
}

func (o *Orchestrator) publish(ev eventbus.Event) {
	if o.bus != nil {
		o.bus.Publish(ev)
	}
}

// solveStatus reports the exact scheduler outcome for metrics and diagnostics.
func solveStatus(sp *scheduler.Plan, err error) string {
	if err == nil && sp != nil {
		return sp.Status
	}
	var pe *planerr.Error
	if errors.As(err, &pe) {
		if s, ok := pe.Details["status"].(string); ok {
			return s
		}
		return pe.Kind.String()
	}
	return "ERROR"
}

func branches(sp *scheduler.Plan) int64 {
	if sp == nil {
		return 0
	}
	return sp.Stats.Branches
}

func countOrders(items []Item) int {
	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		seen[it.OrderID] = struct{}{}
	}
	return len(seen)
}
