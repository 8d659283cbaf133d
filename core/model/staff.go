package model

import "time"

// SkillLevel grades staff experience.
type SkillLevel string

const (
	SkillJunior       SkillLevel = "junior"
	SkillIntermediate SkillLevel = "intermediate"
	SkillSenior       SkillLevel = "senior"
	SkillExpert       SkillLevel = "expert"
)

// TaskType identifies the kind of work attached to a schedule.
type TaskType string

const (
	TaskSetup        TaskType = "setup"
	TaskProduction   TaskType = "production"
	TaskQualityCheck TaskType = "quality_check"
	TaskMaintenance  TaskType = "maintenance"
)

// AssignmentStatus tracks a task assignment.
type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

// Active reports whether the assignment still counts against workload.
func (s AssignmentStatus) Active() bool {
	return s == AssignmentAssigned || s == AssignmentInProgress
}

// DaysPerWeek converts daily hour limits into the weekly ceiling.
const DaysPerWeek = 7

// Staff is a worker that can be assigned to schedule tasks.
type Staff struct {
	ID                   int64      `json:"id" yaml:"id" validate:"required"`
	Name                 string     `json:"name" yaml:"name"`
	Department           string     `json:"department" yaml:"department"`
	SkillLevel           SkillLevel `json:"skill_level" yaml:"skill_level" validate:"omitempty,oneof=junior intermediate senior expert"`
	Specialization       string     `json:"specialization" yaml:"specialization"`
	HourlyRate           float64    `json:"hourly_rate" yaml:"hourly_rate" validate:"gte=0"`
	MaxHoursPerDay       float64    `json:"max_hours_per_day" yaml:"max_hours_per_day" validate:"gt=0"`
	IsAvailable          bool       `json:"is_available" yaml:"is_available"`
	CurrentWorkloadHours float64    `json:"current_workload_hours" yaml:"current_workload_hours" validate:"gte=0"`
}

// WeeklyCeiling is the maximum number of assigned hours.
func (s Staff) WeeklyCeiling() float64 {
	return s.MaxHoursPerDay * DaysPerWeek
}

// RemainingHours is the headroom left under the weekly ceiling.
func (s Staff) RemainingHours() float64 {
	r := s.WeeklyCeiling() - s.CurrentWorkloadHours
	if r < 0 {
		return 0
	}
	return r
}

// Fits reports whether hours more work stays within the ceiling.
func (s Staff) Fits(hours float64) bool {
	return s.CurrentWorkloadHours+hours <= s.WeeklyCeiling()+1e-9
}

// TaskAssignment binds a staff member to a task of a production schedule.
type TaskAssignment struct {
	ID            int64            `json:"id"`
	ScheduleID    int64            `json:"schedule_id" validate:"required"`
	StaffID       int64            `json:"staff_id" validate:"required"`
	TaskType      TaskType         `json:"task_type" validate:"oneof=setup production quality_check maintenance"`
	AssignedHours float64          `json:"assigned_hours" validate:"gt=0"`
	StartTime     time.Time        `json:"start_time"`
	EndTime       time.Time        `json:"end_time" validate:"gtfield=StartTime"`
	Status        AssignmentStatus `json:"status" validate:"omitempty,oneof=assigned in_progress completed"`
	Notes         string           `json:"notes,omitempty"`
}
