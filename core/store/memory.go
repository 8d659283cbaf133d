package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/lineplan/core/model"
)

// MemoryStore keeps everything in maps guarded by a single RWMutex.
type MemoryStore struct {
	mu          sync.RWMutex
	orders      map[int64]model.Order
	lines       map[int64]model.ProductionLine
	schedules   []model.ProductionSchedule
	staff       map[int64]model.Staff
	assignments []model.TaskAssignment
	nextID      int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: map[int64]model.Order{},
		lines:  map[int64]model.ProductionLine{},
		staff:  map[int64]model.Staff{},
	}
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

// AddOrder inserts or replaces an order.
func (s *MemoryStore) AddOrder(o model.Order) {
	s.mu.Lock()
	s.orders[o.ID] = o
	s.mu.Unlock()
}

// AddLine inserts or replaces a production line.
func (s *MemoryStore) AddLine(l model.ProductionLine) {
	s.mu.Lock()
	s.lines[l.ID] = l
	s.mu.Unlock()
}

// AddStaff inserts or replaces a staff member.
func (s *MemoryStore) AddStaff(st model.Staff) {
	s.mu.Lock()
	s.staff[st.ID] = st
	s.mu.Unlock()
}

// PutOrder validates and stores an order.
func (s *MemoryStore) PutOrder(_ context.Context, o model.Order) error {
	if err := model.Validate(o); err != nil {
		return err
	}
	s.AddOrder(o)
	return nil
}

// PutLine validates and stores a production line.
func (s *MemoryStore) PutLine(_ context.Context, l model.ProductionLine) error {
	if err := model.Validate(l); err != nil {
		return err
	}
	s.AddLine(l)
	return nil
}

// PutStaff validates and stores a staff member.
func (s *MemoryStore) PutStaff(_ context.Context, st model.Staff) error {
	if err := model.Validate(st); err != nil {
		return err
	}
	s.AddStaff(st)
	return nil
}

// AddSchedule records a pre-existing commitment without conflict checks.
func (s *MemoryStore) AddSchedule(ps model.ProductionSchedule) model.ProductionSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ps.ID == 0 {
		ps.ID = s.id()
	}
	s.schedules = append(s.schedules, ps)
	return ps
}

func (s *MemoryStore) Orders(_ context.Context, ids []int64) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := s.orders[id]; ok {
			res = append(res, o)
		}
	}
	return res, nil
}

func (s *MemoryStore) ActiveLines(context.Context) ([]model.ProductionLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.ProductionLine, 0, len(s.lines))
	for _, l := range s.lines {
		if l.IsActive {
			res = append(res, l)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryStore) SchedulesInWindow(_ context.Context, start, end time.Time, lineID int64) ([]model.ProductionSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.ProductionSchedule
	for _, ps := range s.schedules {
		if lineID != 0 && ps.LineID != lineID {
			continue
		}
		if ps.Overlaps(start, end) {
			res = append(res, ps)
		}
	}
	SortSchedules(res)
	return res, nil
}

func (s *MemoryStore) Schedule(_ context.Context, id int64) (model.ProductionSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ps := range s.schedules {
		if ps.ID == id {
			return ps, nil
		}
	}
	return model.ProductionSchedule{}, fmt.Errorf("schedule %d: %w", id, ErrNotFound)
}

func (s *MemoryStore) CreateSchedule(_ context.Context, ps model.ProductionSchedule) (model.ProductionSchedule, error) {
	if err := model.Validate(ps); err != nil {
		return ps, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.schedules {
		if ex.LineID == ps.LineID && ex.Overlaps(ps.ScheduledStart, ps.ScheduledEnd) {
			return ps, fmt.Errorf("line %d %s-%s: %w", ps.LineID,
				ps.ScheduledStart.Format(time.RFC3339), ps.ScheduledEnd.Format(time.RFC3339), ErrLineConflict)
		}
	}
	if ps.Status == "" {
		ps.Status = model.ScheduleScheduled
	}
	ps.ID = s.id()
	s.schedules = append(s.schedules, ps)
	return ps, nil
}

func (s *MemoryStore) AvailableStaff(context.Context) ([]model.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Staff, 0, len(s.staff))
	for _, st := range s.staff {
		if st.IsAvailable {
			res = append(res, st)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryStore) Staff(_ context.Context, id int64) (model.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.staff[id]
	if !ok {
		return model.Staff{}, fmt.Errorf("staff %d: %w", id, ErrNotFound)
	}
	return st, nil
}

func (s *MemoryStore) CommitAssignment(_ context.Context, a model.TaskAssignment) (model.TaskAssignment, error) {
	if err := model.Validate(a); err != nil {
		return a, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staff[a.StaffID]
	if !ok {
		return a, fmt.Errorf("staff %d: %w", a.StaffID, ErrNotFound)
	}
	if !st.Fits(a.AssignedHours) {
		return a, fmt.Errorf("staff %d at %.1f/%.1f h: %w", st.ID, st.CurrentWorkloadHours, st.WeeklyCeiling(), ErrWorkloadCeiling)
	}
	st.CurrentWorkloadHours += a.AssignedHours
	s.staff[st.ID] = st
	if a.Status == "" {
		a.Status = model.AssignmentAssigned
	}
	a.ID = s.id()
	s.assignments = append(s.assignments, a)
	return a, nil
}

func (s *MemoryStore) Assignments(_ context.Context, staffID int64) ([]model.TaskAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.TaskAssignment
	for _, a := range s.assignments {
		if staffID == 0 || a.StaffID == staffID {
			res = append(res, a)
		}
	}
	return res, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// SortSchedules orders schedules by line then start time.
func SortSchedules(s []model.ProductionSchedule) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].LineID != s[j].LineID {
			return s[i].LineID < s[j].LineID
		}
		return s[i].ScheduledStart.Before(s[j].ScheduledStart)
	})
}
