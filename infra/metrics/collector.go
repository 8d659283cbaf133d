package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/lineplan/core/events"
	coremetrics "github.com/kilianp07/lineplan/core/metrics"
	"github.com/kilianp07/lineplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records fallbacks on
// sinks implementing FallbackRecorder. It stops when the context is canceled
// or the bus is closed.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.FallbackRecorder)
	if !ok {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				e, isStrategy := ev.(events.StrategyEvent)
				if !isStrategy || !e.IsFallback() {
					continue
				}
				reason := ""
				if e.Err != nil {
					reason = e.Err.Error()
				}
				_ = rec.RecordFallback(coremetrics.FallbackEvent{
					PlanID:  e.PlanID,
					Problem: e.Problem,
					Reason:  reason,
					Time:    time.Now(),
				})
			}
		}
	}()
}
