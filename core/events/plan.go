package events

import (
	"time"

	"github.com/kilianp07/lineplan/core/model"
)

// BatchEvent is published when a fulfillment run begins.
type BatchEvent struct {
	PlanID   string
	OrderIDs []int64
	Window   model.Window
}

// ScheduleCommittedEvent carries a persisted production schedule.
type ScheduleCommittedEvent struct {
	PlanID      string
	Schedule    model.ProductionSchedule
	ProductName string
	Quantity    int
}

// AssignmentCommittedEvent carries a persisted staff assignment.
type AssignmentCommittedEvent struct {
	PlanID     string
	Assignment model.TaskAssignment
	StaffName  string
}

// StaffFailureEvent reports that no staff could be assigned to a schedule.
type StaffFailureEvent struct {
	PlanID     string
	ScheduleID int64
	Err        error
}

// PlanCompletedEvent is published once a fulfillment run returns.
type PlanCompletedEvent struct {
	PlanID   string
	Status   string
	Items    int
	Skipped  int
	Duration time.Duration
	Err      error
}
