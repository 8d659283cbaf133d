package staffing

import (
	"time"

	"github.com/kilianp07/lineplan/core/model"
)

// Status tags reported on results.
const (
	StatusOptimal  = "OPTIMAL"
	StatusFeasible = "FEASIBLE"
	StatusFallback = "FALLBACK"
	StatusFailed   = "FAILED"
)

// Requirement describes one task of a production schedule. RequiredLevel is
// carried for reporting and for custom SkillMatchers; DefaultSkillMatcher and
// Cost do not read it, so a less senior member can still take the task.
type Requirement struct {
	TaskType       model.TaskType   `json:"task_type" yaml:"task_type"`
	EstimatedHours float64          `json:"estimated_hours" yaml:"estimated_hours"`
	RequiredSkill  string           `json:"required_skill,omitempty" yaml:"required_skill,omitempty"`
	RequiredLevel  model.SkillLevel `json:"required_level,omitempty" yaml:"required_level,omitempty"`
}

// Assignment is a committed task assignment enriched for reporting.
type Assignment struct {
	model.TaskAssignment
	StaffName  string           `json:"staff_name"`
	StaffLevel model.SkillLevel `json:"staff_skill"`
	SkillMatch bool             `json:"skill_match"`
	Cost       float64          `json:"cost"`
}

// Stats summarise one optimisation.
type Stats struct {
	SolveTime     time.Duration `json:"solve_time"`
	TasksAssigned int           `json:"tasks_assigned"`
	StaffUtilized int           `json:"staff_utilized"`
	Method        string        `json:"method"`
}

// Result is the outcome of assigning the tasks of one schedule.
type Result struct {
	Status      string        `json:"status"`
	ScheduleID  int64         `json:"schedule_id"`
	Assignments []Assignment  `json:"assignments"`
	Dropped     []Requirement `json:"dropped,omitempty"`
	TotalCost   float64       `json:"total_cost"`
	Stats       Stats         `json:"statistics"`
}
