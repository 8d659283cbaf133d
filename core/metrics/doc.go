// Package metrics defines the sink interfaces used to record planning
// outcomes. A sink only has to record plans; solver invocations and
// fallbacks are recorded when the sink also implements SolveRecorder or
// FallbackRecorder. NewMetricsSink builds sinks from configuration and
// returns a MultiSink when several are configured.
package metrics
