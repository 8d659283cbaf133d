package model

import (
	"math"
	"time"
)

// ProductionLine is owned externally and read-only to the planner.
type ProductionLine struct {
	ID              int64   `json:"id" yaml:"id" validate:"required"`
	Name            string  `json:"name" yaml:"name"`
	CapacityPerHour float64 `json:"capacity_per_hour" yaml:"capacity_per_hour" validate:"gt=0"`
	IsActive        bool    `json:"is_active" yaml:"is_active"`
}

// MinDurationHours is the capacity-derived lower bound for producing qty units.
func (l ProductionLine) MinDurationHours(qty int) int {
	if l.CapacityPerHour <= 0 {
		return 0
	}
	return int(math.Ceil(float64(qty) / l.CapacityPerHour))
}

// ScheduleStatus tracks the operational state of a production schedule.
type ScheduleStatus string

const (
	ScheduleScheduled  ScheduleStatus = "scheduled"
	ScheduleInProgress ScheduleStatus = "in_progress"
	ScheduleCompleted  ScheduleStatus = "completed"
)

// ProductionSchedule reserves a line for one order over [ScheduledStart, ScheduledEnd).
type ProductionSchedule struct {
	ID             int64          `json:"id" yaml:"id"`
	OrderID        int64          `json:"order_id" yaml:"order_id" validate:"required"`
	LineID         int64          `json:"production_line_id" yaml:"production_line_id" validate:"required"`
	ScheduledStart time.Time      `json:"scheduled_start" yaml:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time      `json:"scheduled_end" yaml:"scheduled_end" validate:"required,gtfield=ScheduledStart"`
	ActualStart    *time.Time     `json:"actual_start,omitempty" yaml:"actual_start,omitempty"`
	ActualEnd      *time.Time     `json:"actual_end,omitempty" yaml:"actual_end,omitempty"`
	Status         ScheduleStatus `json:"status" yaml:"status" validate:"omitempty,oneof=scheduled in_progress completed"`
	Notes          string         `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Duration returns the scheduled length.
func (s ProductionSchedule) Duration() time.Duration {
	return s.ScheduledEnd.Sub(s.ScheduledStart)
}

// Overlaps reports whether the schedule intersects [start, end).
func (s ProductionSchedule) Overlaps(start, end time.Time) bool {
	return s.ScheduledStart.Before(end) && start.Before(s.ScheduledEnd)
}

// OverlapHours returns the length of the intersection with [start, end) in hours.
func (s ProductionSchedule) OverlapHours(start, end time.Time) float64 {
	lo, hi := s.ScheduledStart, s.ScheduledEnd
	if lo.Before(start) {
		lo = start
	}
	if hi.After(end) {
		hi = end
	}
	if !hi.After(lo) {
		return 0
	}
	return hi.Sub(lo).Hours()
}
