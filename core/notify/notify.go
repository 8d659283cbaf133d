// Package notify defines how committed schedules and staff assignments are
// announced to systems outside the planner, such as line controllers and
// shift boards.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/lineplan/core/events"
)

// DefaultTopicPrefix roots every topic built by ScheduleTopic and AssignmentTopic.
const DefaultTopicPrefix = "lineplan"

// Publisher pushes committed plan artefacts to a downstream transport.
type Publisher interface {
	PublishSchedule(ctx context.Context, ev events.ScheduleCommittedEvent) error
	PublishAssignment(ctx context.Context, ev events.AssignmentCommittedEvent) error
	Close() error
}

// ScheduleMessage is the wire form of a committed production schedule.
type ScheduleMessage struct {
	PlanID      string    `json:"plan_id"`
	ScheduleID  int64     `json:"schedule_id"`
	OrderID     int64     `json:"order_id"`
	LineID      int64     `json:"production_line_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Start       time.Time `json:"scheduled_start"`
	End         time.Time `json:"scheduled_end"`
	Timestamp   int64     `json:"timestamp"`
}

// NewScheduleMessage builds the message for ev stamped at now.
func NewScheduleMessage(ev events.ScheduleCommittedEvent, now time.Time) ScheduleMessage {
	return ScheduleMessage{
		PlanID:      ev.PlanID,
		ScheduleID:  ev.Schedule.ID,
		OrderID:     ev.Schedule.OrderID,
		LineID:      ev.Schedule.LineID,
		ProductName: ev.ProductName,
		Quantity:    ev.Quantity,
		Start:       ev.Schedule.ScheduledStart,
		End:         ev.Schedule.ScheduledEnd,
		Timestamp:   now.UnixMilli(),
	}
}

// AssignmentMessage is the wire form of a committed staff assignment.
type AssignmentMessage struct {
	PlanID       string    `json:"plan_id"`
	AssignmentID int64     `json:"assignment_id"`
	ScheduleID   int64     `json:"schedule_id"`
	StaffID      int64     `json:"staff_id"`
	StaffName    string    `json:"staff_name"`
	TaskType     string    `json:"task_type"`
	Hours        float64   `json:"assigned_hours"`
	Start        time.Time `json:"start_time"`
	End          time.Time `json:"end_time"`
	Timestamp    int64     `json:"timestamp"`
}

// NewAssignmentMessage builds the message for ev stamped at now.
func NewAssignmentMessage(ev events.AssignmentCommittedEvent, now time.Time) AssignmentMessage {
	a := ev.Assignment
	return AssignmentMessage{
		PlanID:       ev.PlanID,
		AssignmentID: a.ID,
		ScheduleID:   a.ScheduleID,
		StaffID:      a.StaffID,
		StaffName:    ev.StaffName,
		TaskType:     string(a.TaskType),
		Hours:        a.AssignedHours,
		Start:        a.StartTime,
		End:          a.EndTime,
		Timestamp:    now.UnixMilli(),
	}
}

// ScheduleTopic is the per-line topic schedules are published on.
func ScheduleTopic(prefix string, lineID int64) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return fmt.Sprintf("%s/line/%d/schedule", prefix, lineID)
}

// AssignmentTopic is the per-staff topic assignments are published on.
func AssignmentTopic(prefix string, staffID int64) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return fmt.Sprintf("%s/staff/%d/assignment", prefix, staffID)
}

// NopPublisher discards everything.
type NopPublisher struct{}

func (NopPublisher) PublishSchedule(context.Context, events.ScheduleCommittedEvent) error     { return nil }
func (NopPublisher) PublishAssignment(context.Context, events.AssignmentCommittedEvent) error { return nil }
func (NopPublisher) Close() error                                                             { return nil }
