package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Interval is a half-open span [Start, End) in whole hours from the horizon start.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ScheduleModel is the discretised scheduling problem.
type ScheduleModel struct {
	// Horizon is the number of whole hours available.
	Horizon int
	// Durations[t][l] is the duration of task t on line l. A value <= 0
	// forbids the pair.
	Durations [][]int
	// Blocked[l] lists pre-existing reservations on line l.
	Blocked [][]Interval
}

// Tasks returns the number of tasks in the model.
func (m ScheduleModel) Tasks() int { return len(m.Durations) }

// Lines returns the number of lines in the model.
func (m ScheduleModel) Lines() int {
	if len(m.Durations) > 0 {
		return len(m.Durations[0])
	}
	return len(m.Blocked)
}

// Validate checks the model dimensions.
func (m ScheduleModel) Validate() error {
	if m.Horizon <= 0 {
		return errors.New("horizon must be positive")
	}
	lines := m.Lines()
	for t, row := range m.Durations {
		if len(row) != lines {
			return fmt.Errorf("task %d has %d durations, want %d", t, len(row), lines)
		}
	}
	if m.Blocked != nil && len(m.Blocked) != lines {
		return fmt.Errorf("blocked intervals given for %d lines, want %d", len(m.Blocked), lines)
	}
	return nil
}

// ScheduleSolution maps every task to a line and an interval.
type ScheduleSolution struct {
	Status   Status
	Line     []int
	Start    []int
	End      []int
	Makespan int
	// Bound is the best proven lower bound on the makespan.
	Bound int
	Stats Stats
}

// SolveSchedule minimises the makespan of m.
func (BranchAndBound) SolveSchedule(ctx context.Context, m ScheduleModel, p Params) ScheduleSolution {
	clk := newClock(ctx, p.TimeLimit)
	if err := m.Validate(); err != nil {
		return ScheduleSolution{Status: StatusModelInvalid}
	}
	s := newSchedSearch(m, clk)
	sol := s.run()
	sol.Stats = Stats{WallTime: clk.elapsed(), Branches: s.nodes, Pruned: s.pruned}
	return sol
}

type schedSearch struct {
	m       ScheduleModel
	clk     *clock
	blocked [][]Interval

	order    []int // task visiting order
	minDur   []int
	restWork []int // restWork[k] = sum of minDur over order[k:]
	restMax  []int // restMax[k] = max minDur over order[k:]

	seq     [][]int
	line    []int
	start   []int
	end     []int
	lineEnd []int
	placed  int // sum of durations of placed tasks

	best      int
	bestLine  []int
	bestStart []int
	bestEnd   []int

	nodes, pruned int64
}

func newSchedSearch(m ScheduleModel, clk *clock) *schedSearch {
	n, lines := m.Tasks(), m.Lines()
	s := &schedSearch{
		m:       m,
		clk:     clk,
		blocked: make([][]Interval, lines),
		minDur:  make([]int, n),
		seq:     make([][]int, lines),
		line:    make([]int, n),
		start:   make([]int, n),
		end:     make([]int, n),
		lineEnd: make([]int, lines),
		best:    -1,
	}
	for l := 0; l < lines; l++ {
		if m.Blocked != nil {
			s.blocked[l] = mergeIntervals(m.Blocked[l])
		}
	}
	for t := 0; t < n; t++ {
		s.minDur[t] = -1
		for l := 0; l < lines; l++ {
			d := m.Durations[t][l]
			if d > 0 && d <= m.Horizon && (s.minDur[t] < 0 || d < s.minDur[t]) {
				s.minDur[t] = d
			}
		}
		s.line[t] = -1
	}
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	sort.SliceStable(s.order, func(a, b int) bool { return s.minDur[s.order[a]] > s.minDur[s.order[b]] })
	s.restWork = make([]int, n+1)
	s.restMax = make([]int, n+1)
	for k := n - 1; k >= 0; k-- {
		d := s.minDur[s.order[k]]
		s.restWork[k] = s.restWork[k+1] + d
		s.restMax[k] = s.restMax[k+1]
		if d > s.restMax[k] {
			s.restMax[k] = d
		}
	}
	return s
}

func (s *schedSearch) run() ScheduleSolution {
	n, lines := s.m.Tasks(), s.m.Lines()
	if n == 0 {
		return ScheduleSolution{Status: StatusOptimal}
	}
	for t := 0; t < n; t++ {
		if s.minDur[t] < 0 {
			return ScheduleSolution{Status: StatusInfeasible}
		}
	}
	if lines == 0 {
		return ScheduleSolution{Status: StatusInfeasible}
	}
	root := s.bound(0, 0)
	if v, err := makespanBound(s.m); err == nil {
		if c := int(math.Ceil(v - 1e-6)); c > root {
			root = c
		}
	}
	s.search(0, 0, root)

	sol := ScheduleSolution{Bound: root}
	switch {
	case s.best >= 0 && !s.clk.expired:
		sol.Status = StatusOptimal
	case s.best >= 0:
		sol.Status = StatusFeasible
	case s.clk.expired:
		sol.Status = StatusUnknown
	default:
		sol.Status = StatusInfeasible
	}
	if s.best >= 0 {
		sol.Line, sol.Start, sol.End, sol.Makespan = s.bestLine, s.bestStart, s.bestEnd, s.best
	}
	return sol
}

// bound is a lower bound on the makespan of any completion of the current
// partial schedule at depth k.
func (s *schedSearch) bound(k, makespan int) int {
	lb := makespan
	if s.restMax[k] > lb {
		lb = s.restMax[k]
	}
	lines := s.m.Lines()
	if area := (s.placed + s.restWork[k] + lines - 1) / lines; area > lb {
		lb = area
	}
	return lb
}

// makespanBound solves the LP relaxation of m where a task may be split
// across its allowed lines and every line load stays below the makespan.
// Blocked intervals are left out, which keeps the value a valid lower bound.
func makespanBound(m ScheduleModel) (v float64, err error) {
	type pair struct{ task, line int }
	var pairs []pair
	for t, row := range m.Durations {
		for l, d := range row {
			if d > 0 && d <= m.Horizon {
				pairs = append(pairs, pair{t, l})
			}
		}
	}
	n, lines := m.Tasks(), m.Lines()
	vars := len(pairs) + 1
	if len(pairs) == 0 || vars > lpBoundMaxVars {
		return 0, errors.New("relaxation skipped")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()
	mk := vars - 1

	c := make([]float64, vars)
	c[mk] = 1

	// line load rows then x >= 0 rows
	g := mat.NewDense(lines+vars, vars, nil)
	h := make([]float64, lines+vars)
	for i, p := range pairs {
		g.Set(p.line, i, float64(m.Durations[p.task][p.line]))
	}
	for l := 0; l < lines; l++ {
		g.Set(l, mk, -1)
	}
	for i := 0; i < vars; i++ {
		g.Set(lines+i, i, -1)
	}

	A := mat.NewDense(n, vars, nil)
	b := make([]float64, n)
	for i, p := range pairs {
		A.Set(p.task, i, 1)
	}
	for t := range b {
		b[t] = 1
	}

	cStd, AStd, bStd := lp.Convert(c, g, h, A, b)
	opt, _, err := lp.Simplex(cStd, AStd, bStd, 1e-7, nil)
	return opt, err
}

type schedChild struct {
	line, pos, makespan, lineEnd int
}

// search returns true when the search must stop, either because the budget
// expired or because an incumbent matched the root bound.
func (s *schedSearch) search(k, makespan, root int) bool {
	if s.clk.stop() {
		return true
	}
	s.nodes++
	if k == len(s.order) {
		if s.best < 0 || makespan < s.best {
			s.best = makespan
			s.bestLine = append([]int(nil), s.line...)
			s.bestStart = append([]int(nil), s.start...)
			s.bestEnd = append([]int(nil), s.end...)
		}
		return s.best <= root
	}
	t := s.order[k]
	var children []schedChild
	for l := range s.seq {
		d := s.m.Durations[t][l]
		if d <= 0 || d > s.m.Horizon {
			continue
		}
		for pos := 0; pos <= len(s.seq[l]); pos++ {
			trial := insertAt(s.seq[l], pos, t)
			le, ok := s.layout(l, trial)
			s.layout(l, s.seq[l])
			if !ok {
				continue
			}
			ms := makespan
			if le > ms {
				ms = le
			}
			children = append(children, schedChild{line: l, pos: pos, makespan: ms, lineEnd: le})
		}
	}
	sort.SliceStable(children, func(a, b int) bool {
		if children[a].makespan != children[b].makespan {
			return children[a].makespan < children[b].makespan
		}
		return children[a].lineEnd < children[b].lineEnd
	})
	for _, c := range children {
		d := s.m.Durations[t][c.line]
		s.placed += d
		if s.best >= 0 && s.bound(k+1, c.makespan) >= s.best {
			s.placed -= d
			s.pruned++
			continue
		}
		prev := s.seq[c.line]
		prevEnd := s.lineEnd[c.line]
		s.seq[c.line] = insertAt(prev, c.pos, t)
		s.lineEnd[c.line], _ = s.layout(c.line, s.seq[c.line])
		s.line[t] = c.line

		stop := s.search(k+1, c.makespan, root)

		s.line[t] = -1
		s.seq[c.line] = prev
		s.layout(c.line, prev)
		s.lineEnd[c.line] = prevEnd
		s.placed -= d
		if stop {
			return true
		}
	}
	return false
}

// layout places the tasks of seq on line l back to back, each at the earliest
// hour that avoids blocked intervals. It records start/end per task and
// returns the end of the last task, or false when the horizon is exceeded.
func (s *schedSearch) layout(l int, seq []int) (int, bool) {
	cursor := 0
	for _, t := range seq {
		d := s.m.Durations[t][l]
		st := earliestFit(s.blocked[l], cursor, d)
		if st+d > s.m.Horizon {
			return 0, false
		}
		s.start[t], s.end[t] = st, st+d
		cursor = st + d
	}
	return cursor, true
}

func earliestFit(blocked []Interval, from, d int) int {
	st := from
	for _, b := range blocked {
		if b.End <= st {
			continue
		}
		if b.Start >= st+d {
			break
		}
		st = b.End
	}
	return st
}

func insertAt(seq []int, pos, t int) []int {
	out := make([]int, 0, len(seq)+1)
	out = append(out, seq[:pos]...)
	out = append(out, t)
	return append(out, seq[pos:]...)
}

func mergeIntervals(in []Interval) []Interval {
	var iv []Interval
	for _, x := range in {
		if x.End > x.Start {
			iv = append(iv, x)
		}
	}
	sort.Slice(iv, func(a, b int) bool { return iv[a].Start < iv[b].Start })
	var out []Interval
	for _, x := range iv {
		if n := len(out); n > 0 && x.Start <= out[n-1].End {
			if x.End > out[n-1].End {
				out[n-1].End = x.End
			}
			continue
		}
		out = append(out, x)
	}
	return out
}
