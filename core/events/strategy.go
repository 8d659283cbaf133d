package events

// Problem names used in StrategyEvent.
const (
	ProblemSchedule   = "schedule"
	ProblemAssignment = "assignment"
)

// Actions used in StrategyEvent.
const (
	ActionExactAttempt       = "exact_attempt"
	ActionExactFailure       = "exact_failure"
	ActionSequentialFallback = "sequential_fallback"
	ActionGreedyFallback     = "greedy_fallback"
)

// StrategyEvent is emitted when a planner picks a solving strategy.
type StrategyEvent struct {
	PlanID  string
	Problem string
	Action  string
	Err     error
}

// IsFallback reports whether the event records a switch to a heuristic.
func (e StrategyEvent) IsFallback() bool {
	return e.Action == ActionSequentialFallback || e.Action == ActionGreedyFallback
}
