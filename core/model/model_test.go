package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimateHours(t *testing.T) {
	assert.Equal(t, 1.0, EstimateHours(0, 2))
	assert.Equal(t, 8.0, EstimateHours(4, 2))
	assert.Equal(t, 6.0, EstimateHours(3, 0), "zero rate falls back to default")
}

func TestExpandOrdersKeepsOrder(t *testing.T) {
	orders := []Order{
		{ID: 1, Items: []OrderItem{{ID: 10, ProductID: 7, Quantity: 2}, {ID: 11, ProductID: 8, Quantity: 1}}},
		{ID: 2, Items: []OrderItem{{ID: 20, ProductID: 7, Quantity: 5}}},
	}
	tasks := ExpandOrders(orders, DefaultHoursPerUnit)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	assert.Equal(t, []int64{10, 11, 20}, []int64{tasks[0].ItemID, tasks[1].ItemID, tasks[2].ItemID})
	assert.Equal(t, 4.0, tasks[0].EstimatedHours)
	assert.Equal(t, 16.0, TotalHours(tasks))
}

func TestLineMinDuration(t *testing.T) {
	l := ProductionLine{ID: 1, CapacityPerHour: 5}
	assert.Equal(t, 3, l.MinDurationHours(11))
	assert.Equal(t, 0, ProductionLine{}.MinDurationHours(3))
}

func TestScheduleOverlapHours(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s := ProductionSchedule{ScheduledStart: base.Add(-2 * time.Hour), ScheduledEnd: base.Add(3 * time.Hour)}
	assert.Equal(t, 3.0, s.OverlapHours(base, base.Add(24*time.Hour)))
	assert.True(t, s.Overlaps(base, base.Add(time.Hour)))
	assert.False(t, s.Overlaps(base.Add(3*time.Hour), base.Add(4*time.Hour)))
	assert.Equal(t, 0.0, s.OverlapHours(base.Add(5*time.Hour), base.Add(6*time.Hour)))
}

func TestStaffCeiling(t *testing.T) {
	s := Staff{MaxHoursPerDay: 8, CurrentWorkloadHours: 50}
	assert.Equal(t, 56.0, s.WeeklyCeiling())
	assert.Equal(t, 6.0, s.RemainingHours())
	assert.True(t, s.Fits(6))
	assert.False(t, s.Fits(6.5))
}

func TestValidateSchedule(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	ok := ProductionSchedule{OrderID: 1, LineID: 2, ScheduledStart: base, ScheduledEnd: base.Add(time.Hour), Status: ScheduleScheduled}
	assert.NoError(t, Validate(ok))

	bad := ok
	bad.ScheduledEnd = base
	err := Validate(bad)
	if err == nil || !strings.Contains(err.Error(), "ScheduledEnd must be after ScheduledStart") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestValidateLine(t *testing.T) {
	err := Validate(ProductionLine{ID: 1})
	if err == nil || !strings.Contains(err.Error(), "CapacityPerHour") {
		t.Fatalf("expected capacity error, got %v", err)
	}
}
