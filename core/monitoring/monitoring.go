// Package monitoring defines the error reporting hook used by the planner.
package monitoring

import (
	"errors"
	"time"

	"github.com/kilianp07/lineplan/core/planerr"
)

// Config selects and tunes the error reporter. An empty DSN disables it.
type Config struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
}

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover reports a panic and re-raises it. Call it deferred.
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

// OrNop returns m, or a NopMonitor when m is nil.
func OrNop(m Monitor) Monitor {
	if m == nil {
		return NopMonitor{}
	}
	return m
}

// ErrorTags returns extra merged with the kind and operation of a planning error.
func ErrorTags(err error, extra map[string]string) map[string]string {
	tags := make(map[string]string, len(extra)+2)
	for k, v := range extra {
		tags[k] = v
	}
	tags["error_kind"] = planerr.KindOf(err).String()
	var pe *planerr.Error
	if errors.As(err, &pe) && pe.Op != "" {
		tags["op"] = pe.Op
	}
	return tags
}
