package metrics

import "time"

// PlanRecord summarizes one fulfillment run.
type PlanRecord struct {
	PlanID        string
	Status        string
	Orders        int
	Items         int
	Skipped       int
	Assignments   int
	StaffFailures int
	MakespanHours float64
	TotalCost     float64
	Duration      time.Duration
	Err           string
	Time          time.Time
}

// MetricsSink records plan outcomes for observability purposes.
type MetricsSink interface {
	RecordPlan(rec PlanRecord) error
}

// SolveEvent captures a single exact solver invocation.
type SolveEvent struct {
	PlanID   string
	Problem  string
	Engine   string
	Status   string
	Branches int64
	Duration time.Duration
	Time     time.Time
}

// SolveRecorder records solver invocations.
type SolveRecorder interface {
	RecordSolve(ev SolveEvent) error
}

// FallbackEvent records a switch from the exact solver to a heuristic.
type FallbackEvent struct {
	PlanID  string
	Problem string
	Reason  string
	Time    time.Time
}

// FallbackRecorder records fallback applications.
type FallbackRecorder interface {
	RecordFallback(ev FallbackEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanRecord) error        { return nil }
func (NopSink) RecordSolve(SolveEvent) error       { return nil }
func (NopSink) RecordFallback(FallbackEvent) error { return nil }
