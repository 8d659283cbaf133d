package fulfillment

import (
	"time"

	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/core/timeutil"
)

// Request asks for a batch of orders to be scheduled and staffed.
type Request struct {
	OrderIDs []int64 `json:"order_ids" yaml:"order_ids"`
	// Start defaults to the current time, End to Start plus the default window.
	Start *time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End   *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// Resolve validates the request and returns its UTC planning window.
func (r Request) Resolve(now time.Time, cfg Config) (model.Window, error) {
	const op = "fulfillment request"
	cfg.SetDefaults()
	if len(r.OrderIDs) == 0 {
		return model.Window{}, planerr.Validation(op, "no orders to fulfill")
	}
	for _, id := range r.OrderIDs {
		if id <= 0 {
			return model.Window{}, planerr.Validation(op, "invalid order id %d", id)
		}
	}

	start := timeutil.Normalize(now)
	if r.Start != nil {
		start = timeutil.Normalize(*r.Start)
	}
	end := start.AddDate(0, 0, cfg.DefaultWindowDays)
	if r.End != nil {
		end = timeutil.Normalize(*r.End)
	}
	if !end.After(start) {
		return model.Window{}, planerr.Validation(op, "window end %s must be after start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339)).
			WithDetail("start", start).
			WithDetail("end", end)
	}
	if minSpan := time.Duration(cfg.MinWindowDays) * 24 * time.Hour; end.Sub(start) < minSpan {
		return model.Window{}, planerr.Validation(op, "window %s - %s is shorter than %d day(s)",
			start.Format(time.RFC3339), end.Format(time.RFC3339), cfg.MinWindowDays)
	}
	return model.Window{Start: start, End: end}, nil
}

// Validate reports whether the request would be accepted at now.
func (r Request) Validate(now time.Time, cfg Config) error {
	_, err := r.Resolve(now, cfg)
	return err
}
