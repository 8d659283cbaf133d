package notify

import (
	"context"

	"github.com/kilianp07/lineplan/core/events"
	"github.com/kilianp07/lineplan/core/logger"
	"github.com/kilianp07/lineplan/internal/eventbus"
)

// Relay subscribes to bus and forwards committed schedules and assignments
// to every publisher. A failing publisher is logged and does not stop the
// others. The subscription is lossless: publishing on bus waits for the relay
// rather than dropping a commit. The returned channel is closed once the relay
// has stopped. Closing the bus stops it after every buffered event has been
// forwarded; canceling ctx stops it and discards what is still queued.
func Relay(ctx context.Context, bus eventbus.EventBus, pubs []Publisher, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || len(pubs) == 0 {
		close(done)
		return done
	}
	log = logger.OrNop(log)
	sub := bus.Subscribe(eventbus.Lossless())
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				// Keep publishers blocked on sub moving until Unsubscribe closes it.
				go func() {
					for range sub {
					}
				}()
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				forward(ctx, ev, pubs, log)
			}
		}
	}()
	return done
}

func forward(ctx context.Context, ev eventbus.Event, pubs []Publisher, log logger.Logger) {
	switch e := ev.(type) {
	case events.ScheduleCommittedEvent:
		for _, p := range pubs {
			if err := p.PublishSchedule(ctx, e); err != nil {
				log.Warnw("publish schedule failed", map[string]any{
					"plan_id": e.PlanID, "schedule_id": e.Schedule.ID, "error": err.Error(),
				})
			}
		}
	case events.AssignmentCommittedEvent:
		for _, p := range pubs {
			if err := p.PublishAssignment(ctx, e); err != nil {
				log.Warnw("publish assignment failed", map[string]any{
					"plan_id": e.PlanID, "assignment_id": e.Assignment.ID, "error": err.Error(),
				})
			}
		}
	}
}
