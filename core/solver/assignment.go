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

const capacityEps = 1e-9

// lpBoundMaxVars caps the size of the relaxation solved at the root.
const lpBoundMaxVars = 240

// AssignmentModel assigns every task to exactly one agent.
type AssignmentModel struct {
	// Hours[t] is the load task t adds to its agent.
	Hours []float64
	// Capacity[a] is how many more hours agent a can take.
	Capacity []float64
	// Cost[t][a] is the integer objective contribution of assigning t to a.
	Cost [][]int64
}

// Validate checks the model dimensions.
func (m AssignmentModel) Validate() error {
	if len(m.Cost) != len(m.Hours) {
		return fmt.Errorf("cost rows %d, tasks %d", len(m.Cost), len(m.Hours))
	}
	for t, row := range m.Cost {
		if len(row) != len(m.Capacity) {
			return fmt.Errorf("task %d has %d costs, want %d", t, len(row), len(m.Capacity))
		}
		if m.Hours[t] < 0 {
			return fmt.Errorf("task %d has negative hours", t)
		}
	}
	return nil
}

// AssignmentSolution gives the chosen agent per task.
type AssignmentSolution struct {
	Status    Status
	Agent     []int
	Objective int64
	// Bound is the best proven lower bound on the objective.
	Bound float64
	Stats Stats
}

// SolveAssignment minimises the total cost of m.
func (BranchAndBound) SolveAssignment(ctx context.Context, m AssignmentModel, p Params) AssignmentSolution {
	clk := newClock(ctx, p.TimeLimit)
	if err := m.Validate(); err != nil {
		return AssignmentSolution{Status: StatusModelInvalid}
	}
	s := newAssignSearch(m, clk)
	sol := s.run()
	sol.Stats = Stats{WallTime: clk.elapsed(), Branches: s.nodes, Pruned: s.pruned}
	return sol
}

type assignSearch struct {
	m   AssignmentModel
	clk *clock

	order    []int
	choices  [][]int // agents per task by ascending cost
	minCost  []int64
	restCost []int64

	agent []int
	rem   []float64

	best      int64
	bestAgent []int
	lower     int64

	nodes, pruned int64
}

func newAssignSearch(m AssignmentModel, clk *clock) *assignSearch {
	n, k := len(m.Hours), len(m.Capacity)
	s := &assignSearch{
		m:       m,
		clk:     clk,
		choices: make([][]int, n),
		minCost: make([]int64, n),
		agent:   make([]int, n),
		rem:     append([]float64(nil), m.Capacity...),
		best:    -1,
	}
	for t := 0; t < n; t++ {
		s.agent[t] = -1
		for a := 0; a < k; a++ {
			if m.Hours[t] <= m.Capacity[a]+capacityEps {
				s.choices[t] = append(s.choices[t], a)
			}
		}
		row := m.Cost[t]
		sort.SliceStable(s.choices[t], func(i, j int) bool { return row[s.choices[t][i]] < row[s.choices[t][j]] })
		if len(s.choices[t]) > 0 {
			s.minCost[t] = row[s.choices[t][0]]
		}
	}
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	sort.SliceStable(s.order, func(a, b int) bool { return m.Hours[s.order[a]] > m.Hours[s.order[b]] })
	s.restCost = make([]int64, n+1)
	for i := n - 1; i >= 0; i-- {
		s.restCost[i] = s.restCost[i+1] + s.minCost[s.order[i]]
	}
	return s
}

func (s *assignSearch) run() AssignmentSolution {
	n := len(s.m.Hours)
	if n == 0 {
		return AssignmentSolution{Status: StatusOptimal}
	}
	for t := 0; t < n; t++ {
		if len(s.choices[t]) == 0 {
			return AssignmentSolution{Status: StatusInfeasible}
		}
	}
	s.lower = s.restCost[0]
	bound := float64(s.lower)
	if v, err := relaxationBound(s.m); err == nil {
		if c := int64(math.Ceil(v - 1e-6)); c > s.lower {
			s.lower = c
		}
		bound = math.Max(bound, v)
	}

	s.search(0, 0)

	sol := AssignmentSolution{Bound: bound}
	switch {
	case s.best >= 0 && !s.clk.expired:
		sol.Status = StatusOptimal
		sol.Bound = float64(s.best)
	case s.best >= 0:
		sol.Status = StatusFeasible
	case s.clk.expired:
		sol.Status = StatusUnknown
	default:
		sol.Status = StatusInfeasible
	}
	if s.best >= 0 {
		sol.Agent, sol.Objective = s.bestAgent, s.best
	}
	return sol
}

func (s *assignSearch) search(k int, cost int64) bool {
	if s.clk.stop() {
		return true
	}
	s.nodes++
	if k == len(s.order) {
		if s.best < 0 || cost < s.best {
			s.best = cost
			s.bestAgent = append([]int(nil), s.agent...)
		}
		return s.best <= s.lower
	}
	t := s.order[k]
	h := s.m.Hours[t]
	for _, a := range s.choices[t] {
		if s.rem[a]+capacityEps < h {
			continue
		}
		c := cost + s.m.Cost[t][a]
		if s.best >= 0 && c+s.restCost[k+1] >= s.best {
			s.pruned++
			// choices are sorted by cost, later agents cannot do better
			break
		}
		s.rem[a] -= h
		s.agent[t] = a
		stop := s.search(k+1, c)
		s.agent[t] = -1
		s.rem[a] += h
		if stop {
			return true
		}
	}
	return false
}

// relaxationBound solves the LP relaxation of m with 0 <= x <= 1 and returns
// its optimal value.
func relaxationBound(m AssignmentModel) (v float64, err error) {
	n, k := len(m.Hours), len(m.Capacity)
	vars := n * k
	if vars == 0 || vars > lpBoundMaxVars {
		return 0, errors.New("relaxation skipped")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()

	c := make([]float64, vars)
	for t := 0; t < n; t++ {
		for a := 0; a < k; a++ {
			c[t*k+a] = float64(m.Cost[t][a])
		}
	}

	// capacity rows then x >= 0 rows
	g := mat.NewDense(k+vars, vars, nil)
	h := make([]float64, k+vars)
	for a := 0; a < k; a++ {
		for t := 0; t < n; t++ {
			g.Set(a, t*k+a, m.Hours[t])
		}
		h[a] = m.Capacity[a]
	}
	for i := 0; i < vars; i++ {
		g.Set(k+i, i, -1)
	}

	A := mat.NewDense(n, vars, nil)
	b := make([]float64, n)
	for t := 0; t < n; t++ {
		for a := 0; a < k; a++ {
			A.Set(t, t*k+a, 1)
		}
		b[t] = 1
	}

	cStd, AStd, bStd := lp.Convert(c, g, h, A, b)
	opt, _, err := lp.Simplex(cStd, AStd, bStd, 1e-7, nil)
	return opt, err
}
