package capacity

import (
	"context"
	"sort"
	"time"

	"github.com/kilianp07/lineplan/core/logger"
	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/store"
	"github.com/kilianp07/lineplan/core/timeutil"
)

// EstimateHorizon is how far ahead EstimateCompletion looks for a free slot.
const EstimateHorizon = 30 * 24 * time.Hour

// Calculator reads lines and schedules from the store and runs Compute.
type Calculator struct {
	lines        store.LineSource
	schedules    store.ScheduleStore
	hoursPerUnit float64
	log          logger.Logger
}

// NewCalculator returns a Calculator. hoursPerUnit drives EstimateCompletion.
func NewCalculator(lines store.LineSource, schedules store.ScheduleStore, hoursPerUnit float64, log logger.Logger) *Calculator {
	return &Calculator{lines: lines, schedules: schedules, hoursPerUnit: hoursPerUnit, log: logger.OrNop(log)}
}

// Check reports capacity over w, restricted to one line when lineID is not zero.
func (c *Calculator) Check(ctx context.Context, w model.Window, lineID int64) (Report, error) {
	const op = "capacity check"
	w.Start, w.End = timeutil.NormalizeWindow(w.Start, w.End)
	if !w.End.After(w.Start) {
		return Report{}, planerr.Validation(op, "end %s must be after start %s",
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	lines, err := c.lines.ActiveLines(ctx)
	if err != nil {
		return Report{}, planerr.Storage(op, err)
	}
	if lineID != 0 {
		lines = filterLine(lines, lineID)
	}
	scheds, err := c.schedules.SchedulesInWindow(ctx, w.Start, w.End, lineID)
	if err != nil {
		return Report{}, planerr.Storage(op, err)
	}
	r := Compute(lines, scheds, w)
	c.log.Debugw("capacity computed", map[string]any{
		"lines": len(lines), "schedules": len(scheds), "available_hours": r.AvailableHours,
		"bottlenecks": len(r.Bottlenecks), "slots": len(r.AvailableSlots),
	})
	return r, nil
}

func filterLine(lines []model.ProductionLine, id int64) []model.ProductionLine {
	for _, l := range lines {
		if l.ID == id {
			return []model.ProductionLine{l}
		}
	}
	return nil
}

// Estimate is the expected completion of a new production run.
type Estimate struct {
	Quantity            int       `json:"quantity"`
	EstimatedHours      float64   `json:"estimated_hours"`
	EarliestStart       time.Time `json:"earliest_start"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
	LineID              int64     `json:"production_line_id,omitempty"`
	SlotFound           bool      `json:"slot_found"`
}

// EstimateCompletion finds the earliest free slot in the next 30 days long
// enough for qty units. Without one the completion is pushed past the horizon.
func (c *Calculator) EstimateCompletion(ctx context.Context, qty int, now time.Time) (Estimate, error) {
	now = timeutil.Normalize(now)
	est := Estimate{Quantity: qty, EstimatedHours: model.EstimateHours(qty, c.hoursPerUnit)}
	r, err := c.Check(ctx, model.Window{Start: now, End: now.Add(EstimateHorizon)}, 0)
	if err != nil {
		return est, err
	}
	slots := r.AvailableSlots
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	for _, s := range slots {
		if s.DurationHours >= est.EstimatedHours {
			est.EarliestStart = s.Start
			est.EstimatedCompletion = s.Start.Add(time.Duration(est.EstimatedHours * float64(time.Hour)))
			est.LineID = s.LineID
			est.SlotFound = true
			return est, nil
		}
	}
	est.EarliestStart = now.Add(EstimateHorizon)
	est.EstimatedCompletion = now.Add(EstimateHorizon + 24*time.Hour)
	return est, nil
}
