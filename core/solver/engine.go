package solver

import (
	"context"
	"time"
)

// Status is the outcome of a solve.
type Status int

const (
	// StatusUnknown means the budget ran out before any solution was found.
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusModelInvalid
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusModelInvalid:
		return "MODEL_INVALID"
	case StatusUnavailable:
		return "UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// HasSolution reports whether the solve produced a usable assignment.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Params bounds a single solve.
type Params struct {
	TimeLimit time.Duration
}

// Stats describe the search effort of a solve.
type Stats struct {
	WallTime time.Duration `json:"wall_time"`
	Branches int64         `json:"branches"`
	Pruned   int64         `json:"conflicts"`
}

// Engine solves the two combinatorial models used by the planner. An Engine
// is passed explicitly to every component that needs one; implementations
// must be safe for concurrent use.
type Engine interface {
	Name() string
	SolveSchedule(ctx context.Context, m ScheduleModel, p Params) ScheduleSolution
	SolveAssignment(ctx context.Context, m AssignmentModel, p Params) AssignmentSolution
}

// Unavailable is an Engine that never solves anything. Components given this
// engine go straight to their deterministic fallback.
type Unavailable struct{}

func (Unavailable) Name() string { return "unavailable" }

func (Unavailable) SolveSchedule(context.Context, ScheduleModel, Params) ScheduleSolution {
	return ScheduleSolution{Status: StatusUnavailable}
}

func (Unavailable) SolveAssignment(context.Context, AssignmentModel, Params) AssignmentSolution {
	return AssignmentSolution{Status: StatusUnavailable}
}

// clock tracks the solve deadline. It polls the wall clock every few hundred
// nodes to keep the search loop tight.
type clock struct {
	ctx      context.Context
	began    time.Time
	deadline time.Time
	ticks    int
	expired  bool
}

func newClock(ctx context.Context, limit time.Duration) *clock {
	now := time.Now()
	c := &clock{ctx: ctx, began: now}
	if limit > 0 {
		c.deadline = now.Add(limit)
	}
	if d, ok := ctx.Deadline(); ok && (c.deadline.IsZero() || d.Before(c.deadline)) {
		c.deadline = d
	}
	return c
}

func (c *clock) stop() bool {
	if c.expired {
		return true
	}
	c.ticks++
	if c.ticks&0xff != 0 {
		return false
	}
	if c.ctx.Err() != nil || (!c.deadline.IsZero() && time.Now().After(c.deadline)) {
		c.expired = true
	}
	return c.expired
}

func (c *clock) elapsed() time.Duration { return time.Since(c.began) }
