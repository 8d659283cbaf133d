// Package scheduler assigns order tasks to production lines over a planning
// window.
//
// Scheduler builds a discretised model (whole hours from the window start)
// and hands it to an injected solver.Engine that minimises the makespan.
// Sequential is the deterministic fallback: it walks tasks in input order and
// appends each one to the line that frees up first, skipping tasks that would
// overrun the window.
//
// Both return a *Plan on success. Failures are *planerr.Error values whose
// Kind tells the caller whether falling back makes sense.
package scheduler
