package model

import "time"

// Window is a half-open planning interval [Start, End).
type Window struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Hours returns the window length in hours.
func (w Window) Hours() float64 {
	if !w.End.After(w.Start) {
		return 0
	}
	return w.End.Sub(w.Start).Hours()
}

// WholeHours returns the number of complete hours in the window.
func (w Window) WholeHours() int {
	return int(w.Hours())
}

// WholeDays returns the number of complete days in the window.
func (w Window) WholeDays() int {
	return int(w.Hours() / 24)
}
