package staffing

import (
	"context"
	"time"

	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/store"
	"github.com/kilianp07/lineplan/core/timeutil"
)

// UpcomingWindow is how far ahead WorkloadReport lists upcoming tasks.
const UpcomingWindow = 7 * 24 * time.Hour

// WorkloadReport describes how loaded a staff member is.
type WorkloadReport struct {
	StaffID               int64                  `json:"staff_id"`
	Name                  string                 `json:"name"`
	CurrentWorkloadHours  float64                `json:"current_workload_hours"`
	MaxWeeklyHours        float64                `json:"max_weekly_hours"`
	UtilizationPercentage float64                `json:"utilization_percentage"`
	AvailableHours        float64                `json:"available_hours"`
	ActiveTasks           []model.TaskAssignment `json:"active_tasks"`
	ActiveHours           float64                `json:"total_assigned_hours"`
	UpcomingTasks         []model.TaskAssignment `json:"upcoming_tasks"`
}

// Workload builds the report for staffID as of now.
func Workload(ctx context.Context, st store.StaffStore, staffID int64, now time.Time) (WorkloadReport, error) {
	const op = "staff workload"
	s, err := st.Staff(ctx, staffID)
	if err != nil {
		return WorkloadReport{}, planerr.Storage(op, err)
	}
	as, err := st.Assignments(ctx, staffID)
	if err != nil {
		return WorkloadReport{}, planerr.Storage(op, err)
	}
	now = timeutil.Normalize(now)
	r := WorkloadReport{
		StaffID:              s.ID,
		Name:                 s.Name,
		CurrentWorkloadHours: s.CurrentWorkloadHours,
		MaxWeeklyHours:       s.WeeklyCeiling(),
		AvailableHours:       s.RemainingHours(),
		ActiveTasks:          []model.TaskAssignment{},
		UpcomingTasks:        []model.TaskAssignment{},
	}
	if r.MaxWeeklyHours > 0 {
		r.UtilizationPercentage = s.CurrentWorkloadHours / r.MaxWeeklyHours * 100
	}
	for _, a := range as {
		if a.Status.Active() {
			r.ActiveTasks = append(r.ActiveTasks, a)
			r.ActiveHours += a.AssignedHours
		}
		if start := timeutil.Normalize(a.StartTime); !start.Before(now) && start.Before(now.Add(UpcomingWindow)) {
			r.UpcomingTasks = append(r.UpcomingTasks, a)
		}
	}
	return r, nil
}
