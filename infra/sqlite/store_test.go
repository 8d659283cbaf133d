package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/store"
)

var base = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "lineplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOrdersRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.PutOrder(ctx, model.Order{ID: 2, Items: []model.OrderItem{
		{ID: 21, ProductID: 7, ProductName: "gear", Quantity: 3},
		{ID: 22, ProductID: 8, ProductName: "shaft", Quantity: 1},
	}}))
	require.NoError(t, s.PutOrder(ctx, model.Order{ID: 1, Items: []model.OrderItem{{ID: 11, ProductID: 7, ProductName: "gear", Quantity: 5}}}))

	orders, err := s.Orders(ctx, []int64{2, 99, 1})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(2), orders[0].ID)
	assert.Len(t, orders[0].Items, 2)
	assert.Equal(t, "shaft", orders[0].Items[1].ProductName)
	assert.Equal(t, 5, orders[1].Items[0].Quantity)

	assert.Error(t, s.PutOrder(ctx, model.Order{ID: 3, Items: []model.OrderItem{{ID: 31, Quantity: 0}}}))
}

func TestActiveLines(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.PutLine(ctx, model.ProductionLine{ID: 2, Name: "B", CapacityPerHour: 8, IsActive: true}))
	require.NoError(t, s.PutLine(ctx, model.ProductionLine{ID: 1, Name: "A", CapacityPerHour: 5, IsActive: true}))
	require.NoError(t, s.PutLine(ctx, model.ProductionLine{ID: 3, Name: "C", CapacityPerHour: 5}))

	lines, err := s.ActiveLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].ID)
	assert.True(t, lines[1].IsActive)
}

func TestCreateScheduleRejectsOverlap(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	first, err := s.CreateSchedule(ctx, model.ProductionSchedule{OrderID: 1, LineID: 1, ScheduledStart: base, ScheduledEnd: base.Add(4 * time.Hour)})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.Equal(t, model.ScheduleScheduled, first.Status)

	_, err = s.CreateSchedule(ctx, model.ProductionSchedule{OrderID: 2, LineID: 1, ScheduledStart: base.Add(3 * time.Hour), ScheduledEnd: base.Add(5 * time.Hour)})
	assert.ErrorIs(t, err, store.ErrLineConflict)

	// touching intervals and other lines are fine
	_, err = s.CreateSchedule(ctx, model.ProductionSchedule{OrderID: 2, LineID: 1, ScheduledStart: base.Add(4 * time.Hour), ScheduledEnd: base.Add(6 * time.Hour)})
	require.NoError(t, err)
	_, err = s.CreateSchedule(ctx, model.ProductionSchedule{OrderID: 3, LineID: 2, ScheduledStart: base, ScheduledEnd: base.Add(2 * time.Hour)})
	require.NoError(t, err)

	all, err := s.SchedulesInWindow(ctx, base, base.Add(24*time.Hour), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	lineOne, err := s.SchedulesInWindow(ctx, base.Add(5*time.Hour), base.Add(24*time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, lineOne, 1)
	assert.Equal(t, base.Add(4*time.Hour), lineOne[0].ScheduledStart)
	assert.Nil(t, lineOne[0].ActualStart)

	_, err = s.CreateSchedule(ctx, model.ProductionSchedule{OrderID: 4, LineID: 1, ScheduledStart: base, ScheduledEnd: base})
	assert.Error(t, err)

	got, err := s.Schedule(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.ScheduledEnd.Equal(base.Add(4*time.Hour)))
	_, err = s.Schedule(ctx, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCommitAssignmentEnforcesCeiling(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.PutStaff(ctx, model.Staff{ID: 1, Name: "Ana", SkillLevel: model.SkillSenior, HourlyRate: 20, MaxHoursPerDay: 2, IsAvailable: true, CurrentWorkloadHours: 10}))

	a := model.TaskAssignment{ScheduleID: 1, StaffID: 1, TaskType: model.TaskSetup, AssignedHours: 5, StartTime: base, EndTime: base.Add(5 * time.Hour)}
	_, err := s.CommitAssignment(ctx, a)
	require.ErrorIs(t, err, store.ErrWorkloadCeiling)

	a.EndTime = base.Add(2 * time.Hour)
	a.AssignedHours = 2
	got, err := s.CommitAssignment(ctx, a)
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, model.AssignmentAssigned, got.Status)

	st, err := s.Staff(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 12.0, st.CurrentWorkloadHours)
	assert.Equal(t, model.SkillSenior, st.SkillLevel)

	as, err := s.Assignments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, as, 1)
	assert.Equal(t, model.TaskSetup, as[0].TaskType)
	assert.True(t, as[0].EndTime.Equal(base.Add(2*time.Hour)))

	a.StaffID = 42
	_, err = s.CommitAssignment(ctx, a)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Staff(ctx, 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCommitAssignmentConcurrent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.PutStaff(ctx, model.Staff{ID: 1, Name: "Bo", MaxHoursPerDay: 2, IsAvailable: true}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, refused := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CommitAssignment(ctx, model.TaskAssignment{
				ScheduleID: 1, StaffID: 1, TaskType: model.TaskProduction, AssignedHours: 2,
				StartTime: base, EndTime: base.Add(2 * time.Hour),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, store.ErrWorkloadCeiling):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 7, ok)
	assert.Equal(t, 13, refused)

	st, err := s.Staff(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 14.0, st.CurrentWorkloadHours)
}

func TestAvailableStaffSkipsUnavailable(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.PutStaff(ctx, model.Staff{ID: 2, Name: "B", MaxHoursPerDay: 8, IsAvailable: true}))
	require.NoError(t, s.PutStaff(ctx, model.Staff{ID: 1, Name: "A", MaxHoursPerDay: 8}))
	staff, err := s.AvailableStaff(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "B", staff[0].Name)
}
