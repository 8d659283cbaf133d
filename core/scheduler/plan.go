package scheduler

import (
	"math"
	"time"

	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/solver"
)

// Solver status tags reported on plans.
const (
	StatusOptimal  = "OPTIMAL"
	StatusFeasible = "FEASIBLE"
	StatusFallback = "FALLBACK"
)

// Item is one scheduled order task.
type Item struct {
	OrderID       int64     `json:"order_id"`
	OrderItemID   int64     `json:"order_item_id"`
	ProductID     int64     `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Quantity      int       `json:"quantity"`
	LineID        int64     `json:"production_line_id"`
	LineName      string    `json:"production_line_name"`
	Start         time.Time `json:"start_time"`
	End           time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
	Utilization   float64   `json:"utilization"`
}

// Plan is a successful scheduling result.
type Plan struct {
	Status        string            `json:"status"`
	Window        model.Window      `json:"window"`
	Items         []Item            `json:"schedule"`
	Skipped       []model.OrderTask `json:"skipped,omitempty"`
	MakespanHours float64           `json:"makespan_hours"`
	MakespanDays  float64           `json:"makespan_days"`
	Stats         solver.Stats      `json:"statistics"`
}

// Partial reports whether some tasks could not be placed.
func (p *Plan) Partial() bool { return len(p.Skipped) > 0 }

// Schedules converts the plan items into schedules ready to be committed.
func (p *Plan) Schedules() []model.ProductionSchedule {
	out := make([]model.ProductionSchedule, len(p.Items))
	for i, it := range p.Items {
		out[i] = model.ProductionSchedule{
			OrderID:        it.OrderID,
			LineID:         it.LineID,
			ScheduledStart: it.Start,
			ScheduledEnd:   it.End,
			Status:         model.ScheduleScheduled,
		}
	}
	return out
}

func (p *Plan) setMakespan() {
	var last time.Time
	for _, it := range p.Items {
		if it.End.After(last) {
			last = it.End
		}
	}
	if last.IsZero() {
		return
	}
	p.MakespanHours = last.Sub(p.Window.Start).Hours()
	p.MakespanDays = p.MakespanHours / 24
}

func newItem(t model.OrderTask, l model.ProductionLine, start time.Time, hours int, w model.Window) Item {
	it := Item{
		OrderID:       t.OrderID,
		OrderItemID:   t.ItemID,
		ProductID:     t.ProductID,
		ProductName:   t.ProductName,
		Quantity:      t.Quantity,
		LineID:        l.ID,
		LineName:      l.Name,
		Start:         start,
		End:           start.Add(time.Duration(hours) * time.Hour),
		DurationHours: float64(hours),
	}
	if h := w.Hours(); h > 0 {
		it.Utilization = float64(hours) / h * 100
	}
	return it
}

// DurationOn is the whole-hour duration of t on line l: the task estimate,
// raised to the line's capacity-derived minimum.
func DurationOn(t model.OrderTask, l model.ProductionLine) int {
	d := int(math.Ceil(t.EstimatedHours))
	if m := l.MinDurationHours(t.Quantity); m > d {
		d = m
	}
	if d < 1 {
		d = 1
	}
	return d
}

// BuildDiagnostics summarises why a batch could not be scheduled.
func BuildDiagnostics(tasks []model.OrderTask, lines []model.ProductionLine, w model.Window) planerr.Diagnostics {
	days := w.WholeDays()
	d := planerr.Diagnostics{
		TotalHoursNeeded:   model.TotalHours(tasks),
		TimeWindowDays:     days,
		NumOrders:          countOrders(tasks),
		NumProductionLines: len(lines),
		NumTasks:           len(tasks),
	}
	for _, l := range lines {
		d.AvailableHours += l.CapacityPerHour * float64(days) * 24
	}
	return d
}

func countOrders(tasks []model.OrderTask) int {
	seen := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		seen[t.OrderID] = struct{}{}
	}
	return len(seen)
}

func checkInputs(op string, tasks []model.OrderTask, lines []model.ProductionLine, w model.Window) error {
	if len(lines) == 0 {
		return planerr.Configuration(op, "no active production lines available").
			WithDiagnostics(BuildDiagnostics(tasks, lines, w))
	}
	if len(tasks) == 0 {
		return planerr.Validation(op, "no order items to schedule")
	}
	if w.WholeHours() < 1 {
		return planerr.Validation(op, "window %s - %s is shorter than one hour",
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}
