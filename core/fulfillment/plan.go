package fulfillment

import (
	"time"

	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/scheduler"
	"github.com/kilianp07/lineplan/core/staffing"
)

// StatusFailed tags plan log and metric records of runs that returned an error.
const StatusFailed = "FAILED"

// Item is a committed scheduled item.
type Item struct {
	scheduler.Item
	ScheduleID int64 `json:"schedule_id"`
}

// DroppedTask is a staff task no one could take.
type DroppedTask struct {
	ScheduleID int64 `json:"schedule_id"`
	staffing.Requirement
}

// StaffFailure records a schedule whose staffing failed entirely.
type StaffFailure struct {
	ScheduleID int64  `json:"schedule_id"`
	OrderID    int64  `json:"order_id"`
	LineID     int64  `json:"production_line_id"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
}

// Warning is a non-fatal condition attached to a plan.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Plan is the aggregated outcome of a fulfillment run.
type Plan struct {
	PlanID          string                `json:"plan_id"`
	Status          string                `json:"solver_status"`
	Window          model.Window          `json:"window"`
	OrdersOptimized int                   `json:"orders_optimized"`
	Items           []Item                `json:"production_schedule"`
	MakespanHours   float64               `json:"total_makespan_hours"`
	MakespanDays    float64               `json:"total_makespan_days"`
	Assignments     []staffing.Assignment `json:"staff_assignments"`
	TotalCost       float64               `json:"total_cost"`
	Skipped         []model.OrderTask     `json:"skipped_items,omitempty"`
	DroppedTasks    []DroppedTask         `json:"dropped_tasks,omitempty"`
	StaffFailures   []StaffFailure        `json:"staff_failures,omitempty"`
	Warnings        []Warning             `json:"warnings,omitempty"`
	Duration        time.Duration         `json:"duration"`
}

// AssignmentsFor returns the staff assignments of one schedule.
func (p *Plan) AssignmentsFor(scheduleID int64) []staffing.Assignment {
	var out []staffing.Assignment
	for _, a := range p.Assignments {
		if a.ScheduleID == scheduleID {
			out = append(out, a)
		}
	}
	return out
}

// ScheduleIDs lists the committed schedule ids in plan order.
func (p *Plan) ScheduleIDs() []int64 {
	ids := make([]int64, len(p.Items))
	for i, it := range p.Items {
		ids[i] = it.ScheduleID
	}
	return ids
}

func (p *Plan) warn(kind, msg string) {
	p.Warnings = append(p.Warnings, Warning{Kind: kind, Message: msg})
}

func (p *Plan) setMakespan() {
	var last time.Time
	for _, it := range p.Items {
		if it.End.After(last) {
			last = it.End
		}
	}
	p.MakespanHours, p.MakespanDays = 0, 0
	if last.IsZero() {
		return
	}
	p.MakespanHours = last.Sub(p.Window.Start).Hours()
	p.MakespanDays = p.MakespanHours / 24
}
