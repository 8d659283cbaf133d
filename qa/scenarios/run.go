package scenarios

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/lineplan/core/factory"
	"github.com/kilianp07/lineplan/core/fulfillment"
	"github.com/kilianp07/lineplan/core/logger"
	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/scheduler"
	"github.com/kilianp07/lineplan/core/solver"
	"github.com/kilianp07/lineplan/core/staffing"
	"github.com/kilianp07/lineplan/core/store"
)

// Outcome is what a scenario run produced.
type Outcome struct {
	Plan *fulfillment.Plan
	Err  error
	// Violations lists broken plant invariants found after the run.
	Violations []string
}

// Run seeds a fresh in-memory plant with sc and fulfills its request. The
// returned error is set only when the scenario itself cannot be set up.
func Run(ctx context.Context, sc *Scenario, log logger.Logger) (*Outcome, error) {
	log = logger.OrNop(log)
	st := store.NewMemoryStore()
	if err := sc.Seed(ctx, st); err != nil {
		return nil, fmt.Errorf("seed %s: %w", sc.Name, err)
	}
	engine, err := solver.New(factory.ModuleConfig{Type: sc.Engine})
	if err != nil {
		return nil, fmt.Errorf("engine %q: %w", sc.Engine, err)
	}

	exact := scheduler.New(engine, scheduler.Config{HoursPerUnit: sc.HoursPerUnit}, log)
	seq := scheduler.NewSequential(log)
	opt := staffing.NewOptimizer(engine, st, staffing.Config{}, log)
	orch, err := fulfillment.New(st, exact, seq, opt, fulfillment.Config{HoursPerUnit: sc.HoursPerUnit}, log)
	if err != nil {
		return nil, err
	}
	start := sc.Window.Start
	orch.SetClock(func() time.Time { return start })

	req := fulfillment.Request{OrderIDs: sc.OrderIDs, Start: &start}
	if !sc.Window.End.IsZero() {
		end := sc.Window.End
		req.End = &end
	}
	out := &Outcome{}
	out.Plan, out.Err = orch.Fulfill(ctx, req)

	viol, err := checkPlant(ctx, st, sc)
	if err != nil {
		return nil, err
	}
	out.Violations = viol
	return out, nil
}

// checkPlant verifies line exclusivity and the weekly staff ceiling on the
// store after a run.
func checkPlant(ctx context.Context, st *store.MemoryStore, sc *Scenario) ([]string, error) {
	var out []string
	from := sc.Window.Start.AddDate(-1, 0, 0)
	to := sc.Window.Start.AddDate(1, 0, 0)
	scheds, err := st.SchedulesInWindow(ctx, from, to, 0)
	if err != nil {
		return nil, err
	}
	byLine := map[int64][]model.ProductionSchedule{}
	for _, s := range scheds {
		byLine[s.LineID] = append(byLine[s.LineID], s)
	}
	for line, ss := range byLine {
		sort.Slice(ss, func(i, j int) bool { return ss[i].ScheduledStart.Before(ss[j].ScheduledStart) })
		for i := 1; i < len(ss); i++ {
			if ss[i].ScheduledStart.Before(ss[i-1].ScheduledEnd) {
				out = append(out, fmt.Sprintf("line %d: schedules %d and %d overlap", line, ss[i-1].ID, ss[i].ID))
			}
		}
	}
	for _, s := range sc.Staff {
		cur, err := st.Staff(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		if cur.CurrentWorkloadHours > cur.WeeklyCeiling()+1e-9 {
			out = append(out, fmt.Sprintf("staff %d: workload %.2fh above ceiling %.2fh", s.ID, cur.CurrentWorkloadHours, cur.WeeklyCeiling()))
		}
	}
	return out, nil
}

// Check compares o against the expectations of sc and returns every mismatch.
func Check(sc *Scenario, o *Outcome) []string {
	exp := sc.Expected
	out := append([]string(nil), o.Violations...)
	if exp.ErrorKind != "" {
		if o.Err == nil {
			return append(out, fmt.Sprintf("expected %s error, got none", exp.ErrorKind))
		}
		if got := planerr.KindOf(o.Err).String(); got != exp.ErrorKind {
			out = append(out, fmt.Sprintf("error kind: got %s, want %s (%v)", got, exp.ErrorKind, o.Err))
		}
		for _, s := range exp.ErrorContains {
			if !strings.Contains(o.Err.Error(), s) {
				out = append(out, fmt.Sprintf("error %q does not mention %q", o.Err, s))
			}
		}
		if exp.NumProductionLines != nil {
			d, ok := planerr.DiagnosticsOf(o.Err)
			switch {
			case !ok:
				out = append(out, "error carries no diagnostics")
			case d.NumProductionLines != *exp.NumProductionLines:
				out = append(out, fmt.Sprintf("diagnostics lines: got %d, want %d", d.NumProductionLines, *exp.NumProductionLines))
			}
		}
		return out
	}
	if o.Err != nil {
		return append(out, fmt.Sprintf("unexpected error: %v", o.Err))
	}

	p := o.Plan
	if exp.Status != "" && p.Status != exp.Status {
		out = append(out, fmt.Sprintf("status: got %s, want %s", p.Status, exp.Status))
	}
	out = checkCount(out, "items", len(p.Items), exp.Items)
	out = checkCount(out, "skipped", len(p.Skipped), exp.Skipped)
	out = checkCount(out, "assignments", len(p.Assignments), exp.Assignments)
	out = checkCount(out, "staff failures", len(p.StaffFailures), exp.StaffFailures)
	if exp.MaxMakespanHours > 0 && p.MakespanHours > exp.MaxMakespanHours {
		out = append(out, fmt.Sprintf("makespan %.2fh exceeds %.2fh", p.MakespanHours, exp.MaxMakespanHours))
	}
	for _, it := range p.Items {
		if it.End.After(p.Window.End) {
			out = append(out, fmt.Sprintf("item %d ends after the window", it.OrderItemID))
		}
	}
	return out
}

func checkCount(out []string, what string, got int, want *int) []string {
	if want != nil && got != *want {
		out = append(out, fmt.Sprintf("%s: got %d, want %d", what, got, *want))
	}
	return out
}
