// Package store declares the collaborators the planner reads from and writes
// to, plus an in-memory implementation used by tests, scenarios and the
// memory backend.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/lineplan/core/model"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLineConflict is returned when a new schedule would overlap an
	// existing one on the same line.
	ErrLineConflict = errors.New("schedule overlaps an existing reservation on the line")
	// ErrWorkloadCeiling is returned when an assignment would push a staff
	// member past max_hours_per_day*7.
	ErrWorkloadCeiling = errors.New("assignment exceeds weekly workload ceiling")
)

// OrderSource looks up orders with their items and product names.
type OrderSource interface {
	Orders(ctx context.Context, ids []int64) ([]model.Order, error)
}

// LineSource lists production lines.
type LineSource interface {
	ActiveLines(ctx context.Context) ([]model.ProductionLine, error)
}

// ScheduleStore reads and creates production schedules.
type ScheduleStore interface {
	// SchedulesInWindow returns schedules intersecting [start, end). A zero
	// lineID means every line.
	SchedulesInWindow(ctx context.Context, start, end time.Time, lineID int64) ([]model.ProductionSchedule, error)
	// CreateSchedule persists s and returns it with its ID set. It fails with
	// ErrLineConflict when s overlaps an existing schedule on the same line.
	CreateSchedule(ctx context.Context, s model.ProductionSchedule) (model.ProductionSchedule, error)
	// Schedule returns one schedule or ErrNotFound.
	Schedule(ctx context.Context, id int64) (model.ProductionSchedule, error)
}

// StaffStore reads staff and commits task assignments.
type StaffStore interface {
	AvailableStaff(ctx context.Context) ([]model.Staff, error)
	Staff(ctx context.Context, id int64) (model.Staff, error)
	// CommitAssignment persists a and increments the staff member's workload
	// by a.AssignedHours in one atomic step. It fails with ErrWorkloadCeiling
	// when the increment would exceed the weekly ceiling.
	CommitAssignment(ctx context.Context, a model.TaskAssignment) (model.TaskAssignment, error)
	Assignments(ctx context.Context, staffID int64) ([]model.TaskAssignment, error)
}

// Store bundles every collaborator.
type Store interface {
	OrderSource
	LineSource
	ScheduleStore
	StaffStore
	Close() error
}
