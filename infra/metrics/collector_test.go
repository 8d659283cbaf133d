package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineplan/core/events"
	coremetrics "github.com/kilianp07/lineplan/core/metrics"
	"github.com/kilianp07/lineplan/internal/eventbus"
)

type fallbackSink struct {
	mu  sync.Mutex
	evs []coremetrics.FallbackEvent
}

func (s *fallbackSink) RecordPlan(coremetrics.PlanRecord) error { return nil }

func (s *fallbackSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evs = append(s.evs, ev)
	return nil
}

func (s *fallbackSink) recorded() []coremetrics.FallbackEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]coremetrics.FallbackEvent(nil), s.evs...)
}

func TestEventCollectorRecordsFallbacks(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sink := &fallbackSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartEventCollector(ctx, bus, sink)

	bus.Publish(events.StrategyEvent{PlanID: "p", Problem: events.ProblemSchedule, Action: events.ActionExactAttempt})
	bus.Publish(events.StrategyEvent{
		PlanID: "p", Problem: events.ProblemSchedule, Action: events.ActionSequentialFallback,
		Err: errors.New("no solution"),
	})

	require.Eventually(t, func() bool { return len(sink.recorded()) == 1 }, time.Second, 5*time.Millisecond)
	ev := sink.recorded()[0]
	assert.Equal(t, "schedule", ev.Problem)
	assert.Equal(t, "no solution", ev.Reason)
	assert.Equal(t, "p", ev.PlanID)
}
