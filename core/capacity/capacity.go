// Package capacity reports line capacity, bookings, bottlenecks and free
// slots over a window.
package capacity

import (
	"sort"
	"time"

	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/timeutil"
)

const (
	// BottleneckThreshold is the daily utilisation percentage above which a
	// line is flagged.
	BottleneckThreshold = 80.0
	// MinSlot is the shortest gap reported as an available slot.
	MinSlot = 2 * time.Hour

	hoursPerDay = 24
)

// Bottleneck flags a line that is heavily booked on a given day.
type Bottleneck struct {
	Date          string  `json:"date"`
	LineID        int64   `json:"production_line_id"`
	LineName      string  `json:"production_line_name"`
	Utilization   float64 `json:"utilization"`
	BookedHours   float64 `json:"booked_hours"`
	CapacityHours float64 `json:"capacity_hours"`
}

// Slot is a free gap on a line.
type Slot struct {
	LineID        int64     `json:"production_line_id"`
	LineName      string    `json:"production_line_name"`
	Start         time.Time `json:"start_time"`
	End           time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
}

// Report is the capacity picture of a window.
type Report struct {
	Window              model.Window `json:"window"`
	TotalCapacityHours  float64      `json:"total_capacity_hours"`
	BookedHours         float64      `json:"booked_hours"`
	AvailableHours      float64      `json:"available_hours"`
	AvailablePercentage float64      `json:"available_percentage"`
	Bottlenecks         []Bottleneck `json:"bottlenecks"`
	AvailableSlots      []Slot       `json:"available_slots"`
}

// Compute builds a Report for lines over w. Only schedules on one of lines
// count as bookings. Total capacity is capacity_per_hour*24 per line for
// every day touched by the window.
func Compute(lines []model.ProductionLine, schedules []model.ProductionSchedule, w model.Window) Report {
	w.Start, w.End = timeutil.NormalizeWindow(w.Start, w.End)
	r := Report{Window: w, Bottlenecks: []Bottleneck{}, AvailableSlots: []Slot{}}
	if len(lines) == 0 || !w.End.After(w.Start) {
		return r
	}

	byLine := make(map[int64][]model.ProductionSchedule, len(lines))
	for _, s := range schedules {
		s.ScheduledStart, s.ScheduledEnd = timeutil.NormalizeWindow(s.ScheduledStart, s.ScheduledEnd)
		byLine[s.LineID] = append(byLine[s.LineID], s)
	}
	for id := range byLine {
		ls := byLine[id]
		sort.Slice(ls, func(i, j int) bool { return ls[i].ScheduledStart.Before(ls[j].ScheduledStart) })
	}

	days := w.WholeDays() + 1
	for _, l := range lines {
		r.TotalCapacityHours += l.CapacityPerHour * hoursPerDay * float64(days)
		for _, s := range byLine[l.ID] {
			r.BookedHours += s.OverlapHours(w.Start, w.End)
		}
	}
	r.AvailableHours = r.TotalCapacityHours - r.BookedHours
	if r.AvailableHours < 0 {
		r.AvailableHours = 0
	}
	if r.TotalCapacityHours > 0 {
		r.AvailablePercentage = r.AvailableHours / r.TotalCapacityHours * 100
	}

	for day := timeutil.StartOfDay(w.Start); day.Before(w.End); day = day.Add(hoursPerDay * time.Hour) {
		lo, hi := clip(day, day.Add(hoursPerDay*time.Hour), w)
		for _, l := range lines {
			r.Bottlenecks = appendBottleneck(r.Bottlenecks, l, byLine[l.ID], day, lo, hi)
			r.AvailableSlots = appendSlots(r.AvailableSlots, l, byLine[l.ID], lo, hi)
		}
	}
	return r
}

func clip(start, end time.Time, w model.Window) (time.Time, time.Time) {
	if start.Before(w.Start) {
		start = w.Start
	}
	if end.After(w.End) {
		end = w.End
	}
	return start, end
}

func appendBottleneck(out []Bottleneck, l model.ProductionLine, scheds []model.ProductionSchedule, day, lo, hi time.Time) []Bottleneck {
	capHours := l.CapacityPerHour * hoursPerDay
	if capHours <= 0 {
		return out
	}
	var booked float64
	for _, s := range scheds {
		booked += s.OverlapHours(lo, hi)
	}
	util := booked / capHours * 100
	if util <= BottleneckThreshold {
		return out
	}
	return append(out, Bottleneck{
		Date:          day.Format("2006-01-02"),
		LineID:        l.ID,
		LineName:      l.Name,
		Utilization:   util,
		BookedHours:   booked,
		CapacityHours: capHours,
	})
}

// appendSlots adds the gaps of at least MinSlot between the schedules of one
// line inside [lo, hi). scheds must be sorted by start.
func appendSlots(out []Slot, l model.ProductionLine, scheds []model.ProductionSchedule, lo, hi time.Time) []Slot {
	last := lo
	add := func(end time.Time) {
		if end.Sub(last) >= MinSlot {
			out = append(out, Slot{LineID: l.ID, LineName: l.Name, Start: last, End: end, DurationHours: end.Sub(last).Hours()})
		}
	}
	for _, s := range scheds {
		if !s.Overlaps(lo, hi) {
			continue
		}
		add(s.ScheduledStart)
		if s.ScheduledEnd.After(last) {
			last = s.ScheduledEnd
		}
	}
	if last.Before(hi) {
		add(hi)
	}
	return out
}
