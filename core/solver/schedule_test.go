package solver

import (
	"context"
	"math"
	"testing"
	"time"
)

func uniform(tasks, lines, d int) [][]int {
	out := make([][]int, tasks)
	for t := range out {
		out[t] = make([]int, lines)
		for l := range out[t] {
			out[t][l] = d
		}
	}
	return out
}

func assertNoOverlap(t *testing.T, m ScheduleModel, sol ScheduleSolution) {
	t.Helper()
	for a := range sol.Line {
		if sol.End[a]-sol.Start[a] != m.Durations[a][sol.Line[a]] {
			t.Fatalf("task %d duration mismatch", a)
		}
		if sol.End[a] > m.Horizon {
			t.Fatalf("task %d ends after horizon", a)
		}
		for b := a + 1; b < len(sol.Line); b++ {
			if sol.Line[a] == sol.Line[b] && sol.Start[a] < sol.End[b] && sol.Start[b] < sol.End[a] {
				t.Fatalf("tasks %d and %d overlap on line %d", a, b, sol.Line[a])
			}
		}
		if m.Blocked == nil {
			continue
		}
		for _, iv := range m.Blocked[sol.Line[a]] {
			if sol.Start[a] < iv.End && iv.Start < sol.End[a] {
				t.Fatalf("task %d overlaps blocked %+v", a, iv)
			}
		}
	}
}

func TestSolveScheduleTwoLinesThreeTasks(t *testing.T) {
	m := ScheduleModel{Horizon: 24, Durations: uniform(3, 2, 4)}
	sol := BranchAndBound{}.SolveSchedule(context.Background(), m, Params{TimeLimit: time.Second})
	if sol.Status != StatusOptimal {
		t.Fatalf("status = %s", sol.Status)
	}
	if sol.Makespan != 8 {
		t.Fatalf("makespan = %d, want 8", sol.Makespan)
	}
	assertNoOverlap(t, m, sol)
}

func TestSolveScheduleAvoidsBlocked(t *testing.T) {
	m := ScheduleModel{
		Horizon:   24,
		Durations: [][]int{{3}, {2}},
		Blocked:   [][]Interval{{{Start: 2, End: 6}}},
	}
	sol := BranchAndBound{}.SolveSchedule(context.Background(), m, Params{TimeLimit: time.Second})
	if sol.Status != StatusOptimal {
		t.Fatalf("status = %s", sol.Status)
	}
	assertNoOverlap(t, m, sol)
	// the 2h task fits before the reservation, the 3h one after it
	if sol.Makespan != 9 {
		t.Fatalf("makespan = %d, want 9", sol.Makespan)
	}
}

func TestSolveSchedulePrefersFasterLine(t *testing.T) {
	m := ScheduleModel{Horizon: 48, Durations: [][]int{{10, 3}, {10, 3}}}
	sol := BranchAndBound{}.SolveSchedule(context.Background(), m, Params{TimeLimit: time.Second})
	if sol.Status != StatusOptimal || sol.Makespan != 6 {
		t.Fatalf("got %s makespan %d", sol.Status, sol.Makespan)
	}
	assertNoOverlap(t, m, sol)
}

func TestSolveScheduleInfeasible(t *testing.T) {
	m := ScheduleModel{Horizon: 10, Durations: uniform(3, 1, 4)}
	sol := BranchAndBound{}.SolveSchedule(context.Background(), m, Params{TimeLimit: time.Second})
	if sol.Status != StatusInfeasible {
		t.Fatalf("status = %s", sol.Status)
	}
	if sol.Status.HasSolution() {
		t.Fatal("infeasible must not carry a solution")
	}
}

func TestSolveScheduleTaskLongerThanHorizon(t *testing.T) {
	m := ScheduleModel{Horizon: 5, Durations: [][]int{{6, 7}}}
	sol := BranchAndBound{}.SolveSchedule(context.Background(), m, Params{})
	if sol.Status != StatusInfeasible {
		t.Fatalf("status = %s", sol.Status)
	}
}

func TestSolveScheduleInvalidModel(t *testing.T) {
	sol := BranchAndBound{}.SolveSchedule(context.Background(), ScheduleModel{Horizon: 0}, Params{})
	if sol.Status != StatusModelInvalid {
		t.Fatalf("status = %s", sol.Status)
	}
	sol = BranchAndBound{}.SolveSchedule(context.Background(), ScheduleModel{Horizon: 4, Durations: [][]int{{1, 2}, {1}}}, Params{})
	if sol.Status != StatusModelInvalid {
		t.Fatalf("ragged durations: status = %s", sol.Status)
	}
}

func TestSolveScheduleRespectsBudget(t *testing.T) {
	// distinct durations keep the area bound loose so the search cannot
	// finish early
	n, lines := 14, 4
	d := make([][]int, n)
	for i := range d {
		d[i] = make([]int, lines)
		for l := range d[i] {
			d[i][l] = 3 + (i*7+l*5)%11
		}
	}
	m := ScheduleModel{Horizon: 1000, Durations: d}
	start := time.Now()
	sol := BranchAndBound{}.SolveSchedule(context.Background(), m, Params{TimeLimit: 50 * time.Millisecond})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("solve took %v", elapsed)
	}
	if !sol.Status.HasSolution() {
		t.Fatalf("expected an incumbent, got %s", sol.Status)
	}
	assertNoOverlap(t, m, sol)
}

func TestSolveScheduleEmpty(t *testing.T) {
	sol := BranchAndBound{}.SolveSchedule(context.Background(), ScheduleModel{Horizon: 4, Blocked: [][]Interval{nil}}, Params{})
	if sol.Status != StatusOptimal || sol.Makespan != 0 {
		t.Fatalf("got %s %d", sol.Status, sol.Makespan)
	}
}

func TestUnavailableEngine(t *testing.T) {
	var e Engine = Unavailable{}
	if s := e.SolveSchedule(context.Background(), ScheduleModel{}, Params{}); s.Status != StatusUnavailable {
		t.Fatalf("status = %s", s.Status)
	}
	if s := e.SolveAssignment(context.Background(), AssignmentModel{}, Params{}); s.Status != StatusUnavailable {
		t.Fatalf("status = %s", s.Status)
	}
}

func TestMergeIntervals(t *testing.T) {
	got := mergeIntervals([]Interval{{5, 7}, {0, 2}, {1, 3}, {4, 4}, {7, 9}})
	want := []Interval{{0, 3}, {5, 9}}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestMakespanBoundUsesLineSpeeds(t *testing.T) {
	// two tasks, 10h on line 0 and 3h on line 1: the split optimum is 60/13
	m := ScheduleModel{Horizon: 48, Durations: [][]int{{10, 3}, {10, 3}}}
	v, err := makespanBound(m)
	if err != nil {
		t.Fatalf("bound: %v", err)
	}
	if math.Abs(v-60.0/13) > 1e-6 {
		t.Fatalf("bound = %f, want %f", v, 60.0/13)
	}

	sol := BranchAndBound{}.SolveSchedule(context.Background(), m, Params{TimeLimit: time.Second})
	if sol.Bound != 5 {
		t.Fatalf("solution bound = %d, want 5", sol.Bound)
	}
	if sol.Bound > sol.Makespan {
		t.Fatalf("bound %d above makespan %d", sol.Bound, sol.Makespan)
	}
}

func TestMakespanBoundSkipsForbiddenPairs(t *testing.T) {
	m := ScheduleModel{Horizon: 24, Durations: [][]int{{4, 0}, {0, 6}}}
	v, err := makespanBound(m)
	if err != nil {
		t.Fatalf("bound: %v", err)
	}
	if math.Abs(v-6) > 1e-6 {
		t.Fatalf("bound = %f, want 6", v)
	}
}
