package fulfillment

import "github.com/prometheus/client_golang/prometheus"

var (
	runDuration     *prometheus.HistogramVec
	exactFailures   *prometheus.CounterVec
	schedulesCommit prometheus.Counter
	staffFailures   prometheus.Counter
	itemsSkipped    prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Counter) {
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineplan_fulfillment_duration_seconds",
			Help:    "Duration of fulfillment runs",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)
	exact := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineplan_exact_solve_failures_total",
			Help: "Exact solves that produced no solution",
		},
		[]string{"problem"},
	)
	commits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lineplan_schedules_committed_total",
			Help: "Production schedules committed by fulfillment runs",
		},
	)
	staff := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lineplan_staff_assignment_failures_total",
			Help: "Schedules left without any staff assignment",
		},
	)
	skipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lineplan_fulfillment_items_skipped_total",
			Help: "Order items that did not fit the planning window",
		},
	)
	return dur, exact, commits, staff, skipped
}

func init() {
	runDuration, exactFailures, schedulesCommit, staffFailures, itemsSkipped = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers fulfillment metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(runDuration, exactFailures, schedulesCommit, staffFailures, itemsSkipped)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	runDuration, exactFailures, schedulesCommit, staffFailures, itemsSkipped = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
