package staffing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/solver"
	"github.com/kilianp07/lineplan/core/store"
)

var start = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

func schedule() model.ProductionSchedule {
	return model.ProductionSchedule{ID: 7, OrderID: 1, LineID: 1, ScheduledStart: start, ScheduledEnd: start.Add(8 * time.Hour)}
}

func reqs() []Requirement {
	return []Requirement{
		{TaskType: model.TaskSetup, EstimatedHours: 2, RequiredSkill: "assembly", RequiredLevel: model.SkillIntermediate},
		{TaskType: model.TaskProduction, EstimatedHours: 6, RequiredSkill: "production", RequiredLevel: model.SkillIntermediate},
	}
}

func seed(ms *store.MemoryStore, staff ...model.Staff) {
	for _, s := range staff {
		s.IsAvailable = true
		ms.AddStaff(s)
	}
}

func TestDefaultSkillMatcher(t *testing.T) {
	cases := []struct {
		skill string
		staff model.Staff
		want  bool
	}{
		{"", model.Staff{}, true},
		{"production", model.Staff{Department: "Production"}, true},
		{"assembly", model.Staff{Specialization: "final assembly"}, true},
		{"assembly", model.Staff{Department: "assembly-west"}, true},
		{"welding", model.Staff{Specialization: "weld"}, true},
		{"painting", model.Staff{Department: "logistics", Specialization: "forklift"}, false},
	}
	for _, c := range cases {
		got := DefaultSkillMatcher(Requirement{RequiredSkill: c.skill}, c.staff)
		assert.Equal(t, c.want, got, "skill %q staff %+v", c.skill, c.staff)
	}
}

func TestDefaultSkillMatcherIgnoresLevel(t *testing.T) {
	req := Requirement{RequiredSkill: "production", RequiredLevel: model.SkillExpert, EstimatedHours: 2}
	junior := model.Staff{Department: "production", SkillLevel: model.SkillJunior, HourlyRate: 20}
	assert.True(t, DefaultSkillMatcher(req, junior))
	assert.Equal(t, Cost(Requirement{EstimatedHours: 2}, junior, true), Cost(req, junior, true))
}

func TestCostPenalisesMismatch(t *testing.T) {
	r := Requirement{EstimatedHours: 2}
	s := model.Staff{HourlyRate: 20}
	assert.Equal(t, int64(4000+10), Cost(r, s, true))
	assert.Equal(t, int64(4000+1000), Cost(r, s, false))
}

func TestAssignExactPrefersSkillMatch(t *testing.T) {
	ms := store.NewMemoryStore()
	seed(ms,
		model.Staff{ID: 1, Name: "Ana", Department: "assembly", HourlyRate: 25, MaxHoursPerDay: 8},
		model.Staff{ID: 2, Name: "Bo", Department: "production", HourlyRate: 25, MaxHoursPerDay: 8},
		model.Staff{ID: 3, Name: "Cy", Department: "logistics", HourlyRate: 40, MaxHoursPerDay: 8},
	)
	o := NewOptimizer(solver.BranchAndBound{}, ms, Config{SolveTimeoutSeconds: 2}, nil)
	res, err := o.Assign(context.Background(), schedule(), reqs())
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, res.Status)
	require.Len(t, res.Assignments, 2)
	assert.Equal(t, int64(1), res.Assignments[0].StaffID)
	assert.Equal(t, int64(2), res.Assignments[1].StaffID)
	assert.True(t, res.Assignments[0].SkillMatch)
	assert.Equal(t, 2*25.0+6*25.0, res.TotalCost)
	assert.Equal(t, "exact", res.Stats.Method)
	assert.Equal(t, 2, res.Stats.StaffUtilized)

	// tasks run back to back from the schedule start
	assert.Equal(t, start, res.Assignments[0].StartTime)
	assert.Equal(t, start.Add(2*time.Hour), res.Assignments[1].StartTime)

	bo, err := ms.Staff(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 6.0, bo.CurrentWorkloadHours)
}

func TestAssignExactRespectsCeiling(t *testing.T) {
	ms := store.NewMemoryStore()
	seed(ms,
		model.Staff{ID: 1, Department: "production", HourlyRate: 10, MaxHoursPerDay: 1, CurrentWorkloadHours: 5}, // 2h left
		model.Staff{ID: 2, Department: "office", HourlyRate: 90, MaxHoursPerDay: 8},
	)
	o := NewOptimizer(solver.BranchAndBound{}, ms, Config{}, nil)
	res, err := o.Assign(context.Background(), schedule(), reqs())
	require.NoError(t, err)
	require.Len(t, res.Assignments, 2)
	for _, a := range res.Assignments {
		if a.TaskType == model.TaskProduction {
			assert.Equal(t, int64(2), a.StaffID, "production task does not fit staff 1")
		}
	}
	s1, _ := ms.Staff(context.Background(), 1)
	assert.LessOrEqual(t, s1.CurrentWorkloadHours, s1.WeeklyCeiling())
}

func TestAssignFallsBackToGreedy(t *testing.T) {
	ms := store.NewMemoryStore()
	seed(ms,
		model.Staff{ID: 1, HourlyRate: 10, MaxHoursPerDay: 8, CurrentWorkloadHours: 20},
		model.Staff{ID: 2, HourlyRate: 99, MaxHoursPerDay: 8, CurrentWorkloadHours: 3},
	)
	o := NewOptimizer(solver.Unavailable{}, ms, Config{}, nil)
	res, err := o.Assign(context.Background(), schedule(), reqs())
	require.NoError(t, err)
	assert.Equal(t, StatusFallback, res.Status)
	assert.Equal(t, "greedy", res.Stats.Method)
	require.Len(t, res.Assignments, 2)
	// least loaded first: staff 2 (3h) takes setup, then still least loaded at 5h
	assert.Equal(t, int64(2), res.Assignments[0].StaffID)
	assert.Equal(t, int64(2), res.Assignments[1].StaffID)
}

func TestAssignEveryoneAtCeiling(t *testing.T) {
	ms := store.NewMemoryStore()
	seed(ms,
		model.Staff{ID: 1, MaxHoursPerDay: 8, CurrentWorkloadHours: 56},
		model.Staff{ID: 2, MaxHoursPerDay: 4, CurrentWorkloadHours: 28},
	)
	o := NewOptimizer(solver.BranchAndBound{}, ms, Config{}, nil)

	staff, _ := ms.AvailableStaff(context.Background())
	_, sol := o.Solve(context.Background(), reqs(), staff)
	assert.False(t, sol.Status.HasSolution())
	for _, a := range (Greedy{}).Plan(reqs(), staff) {
		assert.Equal(t, -1, a)
	}

	res, err := o.Assign(context.Background(), schedule(), reqs())
	require.NotNil(t, res)
	assert.Empty(t, res.Assignments)
	assert.Len(t, res.Dropped, 2)
	assert.Equal(t, StatusFailed, res.Status)
	assert.True(t, planerr.Is(err, planerr.KindUnschedulable))
	assert.Contains(t, err.Error(), "no staff available for assignment")
}

func TestAssignNoStaff(t *testing.T) {
	o := NewOptimizer(solver.BranchAndBound{}, store.NewMemoryStore(), Config{}, nil)
	_, err := o.Assign(context.Background(), schedule(), reqs())
	assert.True(t, planerr.Is(err, planerr.KindConfiguration))
}

func TestAssignCustomMatcher(t *testing.T) {
	ms := store.NewMemoryStore()
	seed(ms,
		model.Staff{ID: 1, Department: "assembly", HourlyRate: 10, MaxHoursPerDay: 8},
		model.Staff{ID: 2, Department: "night", HourlyRate: 10, MaxHoursPerDay: 8},
	)
	nightOnly := func(_ Requirement, s model.Staff) bool { return s.Department == "night" }
	o := NewOptimizer(solver.BranchAndBound{}, ms, Config{}, nil, WithSkillMatcher(nightOnly))
	res, err := o.Assign(context.Background(), schedule(), reqs()[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Assignments[0].StaffID)
}

func TestWorkloadReport(t *testing.T) {
	ms := store.NewMemoryStore()
	seed(ms, model.Staff{ID: 1, Name: "Ana", MaxHoursPerDay: 8})
	o := NewOptimizer(solver.BranchAndBound{}, ms, Config{}, nil)
	_, err := o.Assign(context.Background(), schedule(), reqs())
	require.NoError(t, err)

	r, err := Workload(context.Background(), ms, 1, start.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 8.0, r.CurrentWorkloadHours)
	assert.Equal(t, 56.0, r.MaxWeeklyHours)
	assert.InDelta(t, 8.0/56*100, r.UtilizationPercentage, 1e-9)
	assert.Equal(t, 48.0, r.AvailableHours)
	assert.Len(t, r.ActiveTasks, 2)
	assert.Equal(t, 8.0, r.ActiveHours)
	assert.Len(t, r.UpcomingTasks, 2)

	_, err = Workload(context.Background(), ms, 99, start)
	assert.True(t, planerr.Is(err, planerr.KindStorage))
}
