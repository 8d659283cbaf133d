// Package planlog keeps an audit trail of fulfillment runs. Records can be
// appended to a JSONL file, a size-rotated JSONL file or a SQLite database
// and queried back by time range, status or order.
package planlog

import (
	"context"
	"slices"
	"time"

	"github.com/kilianp07/lineplan/core/model"
)

// Record captures one fulfillment run and its outcome.
type Record struct {
	Timestamp     time.Time    `json:"timestamp"`
	PlanID        string       `json:"plan_id"`
	Status        string       `json:"status"`
	OrderIDs      []int64      `json:"order_ids"`
	Window        model.Window `json:"window"`
	ScheduleIDs   []int64      `json:"schedule_ids,omitempty"`
	Items         int          `json:"items"`
	Skipped       int          `json:"skipped"`
	MakespanHours float64      `json:"makespan_hours"`
	Assignments   int          `json:"assignments"`
	TotalCost     float64      `json:"total_cost"`
	Warnings      []string     `json:"warnings,omitempty"`
	ErrorKind     string       `json:"error_kind,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// Query defines filters for retrieving records. Zero fields match everything.
type Query struct {
	Start   time.Time
	End     time.Time
	Status  string
	OrderID int64
}

// Matches reports whether r passes every filter in q.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.OrderID != 0 && !slices.Contains(r.OrderIDs, q.OrderID) {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
