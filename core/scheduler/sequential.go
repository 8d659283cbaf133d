package scheduler

import (
	"context"
	"time"

	"github.com/kilianp07/lineplan/core/logger"
	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/timeutil"
)

// Sequential is the deterministic fallback scheduler. It runs in
// O(tasks*lines) and always terminates.
type Sequential struct {
	log logger.Logger
}

// NewSequential returns a fallback scheduler.
func NewSequential(log logger.Logger) *Sequential {
	return &Sequential{log: logger.OrNop(log)}
}

// Schedule walks tasks in input order and puts each one on the line that
// becomes free first. Tasks that would end after w.End are skipped and listed
// in Plan.Skipped. The batch fails only when there are no lines or nothing
// fits at all.
func (s *Sequential) Schedule(ctx context.Context, tasks []model.OrderTask, lines []model.ProductionLine, existing []model.ProductionSchedule, w model.Window) (*Plan, error) {
	const op = "sequential schedule"
	w.Start, w.End = timeutil.NormalizeWindow(w.Start, w.End)
	if err := checkInputs(op, tasks, lines, w); err != nil {
		return nil, err
	}
	_, span := tracer.Start(ctx, "scheduler.sequential")
	defer span.End()

	next := make([]time.Time, len(lines))
	for i, l := range lines {
		next[i] = w.Start
		for _, ex := range existing {
			if ex.LineID != l.ID || !ex.Overlaps(w.Start, w.End) {
				continue
			}
			if end := timeutil.Normalize(ex.ScheduledEnd); end.After(next[i]) {
				next[i] = end
			}
		}
	}

	p := &Plan{Window: w, Status: StatusFallback}
	for _, t := range tasks {
		li := 0
		for i := 1; i < len(lines); i++ {
			if next[i].Before(next[li]) {
				li = i
			}
		}
		hours := DurationOn(t, lines[li])
		end := next[li].Add(time.Duration(hours) * time.Hour)
		if end.After(w.End) {
			p.Skipped = append(p.Skipped, t)
			s.log.Warnw("task does not fit in window", map[string]any{
				"order_id": t.OrderID, "order_item_id": t.ItemID, "line_id": lines[li].ID,
				"would_end": end.Format(time.RFC3339),
			})
			continue
		}
		p.Items = append(p.Items, newItem(t, lines[li], next[li], hours, w))
		next[li] = end
	}

	if len(p.Items) == 0 {
		return nil, planerr.Unschedulable(op, "cannot schedule any orders in the given time window").
			WithDiagnostics(BuildDiagnostics(tasks, lines, w))
	}
	p.setMakespan()
	s.log.Infof("sequential schedule placed %d/%d items, makespan %.1fh", len(p.Items), len(tasks), p.MakespanHours)
	return p, nil
}
