// Package planerr defines the error kinds shared by the planning core.
// Callers branch on Kind instead of matching messages.
package planerr

import (
	"errors"
	"fmt"
)

// Kind classifies planning failures.
type Kind int

const (
	// KindUnknown is reported for errors that were not produced by this package.
	KindUnknown Kind = iota
	// KindValidation rejects a request before any solve is attempted.
	KindValidation
	// KindConfiguration means a required resource set is empty (no lines, no staff).
	KindConfiguration
	// KindSolveInfeasible means the exact solver found no solution within its
	// budget. It triggers the deterministic fallback and is not surfaced to callers.
	KindSolveInfeasible
	// KindPartialPlacement is a warning: some items or tasks were skipped.
	KindPartialPlacement
	// KindUnschedulable means the fallback could not place anything either.
	KindUnschedulable
	// KindStorage wraps collaborator failures.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindSolveInfeasible:
		return "solve_infeasible"
	case KindPartialPlacement:
		return "partial_placement"
	case KindUnschedulable:
		return "unschedulable"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Diagnostics explain a scheduling failure well enough to decide whether to
// retry with a wider window or a smaller batch.
type Diagnostics struct {
	TotalHoursNeeded   float64 `json:"total_hours_needed"`
	AvailableHours     float64 `json:"available_hours"`
	TimeWindowDays     int     `json:"time_window_days"`
	NumOrders          int     `json:"num_orders"`
	NumProductionLines int     `json:"num_production_lines"`
	NumTasks           int     `json:"num_tasks"`
	SolverStatus       string  `json:"solver_status,omitempty"`
	FallbackError      string  `json:"fallback_error,omitempty"`
}

// Error is the concrete error type returned by the planning core.
type Error struct {
	Kind        Kind
	Op          string
	Message     string
	Details     map[string]any
	Diagnostics *Diagnostics
	Err         error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetail attaches a key/value pair and returns e for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDiagnostics attaches d and returns e.
func (e *Error) WithDiagnostics(d Diagnostics) *Error {
	e.Diagnostics = &d
	return e
}

// New builds an Error of the given kind.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around err.
func Wrap(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(op, format string, args ...any) *Error {
	return New(KindValidation, op, format, args...)
}

func Configuration(op, format string, args ...any) *Error {
	return New(KindConfiguration, op, format, args...)
}

func Infeasible(op, format string, args ...any) *Error {
	return New(KindSolveInfeasible, op, format, args...)
}

func Unschedulable(op, format string, args ...any) *Error {
	return New(KindUnschedulable, op, format, args...)
}

func Storage(op string, err error) *Error {
	return Wrap(KindStorage, op, err, "store operation failed")
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// DiagnosticsOf returns the diagnostics attached to err, if any.
func DiagnosticsOf(err error) (Diagnostics, bool) {
	var pe *Error
	if errors.As(err, &pe) && pe.Diagnostics != nil {
		return *pe.Diagnostics, true
	}
	return Diagnostics{}, false
}
