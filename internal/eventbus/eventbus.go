// Package eventbus fans planning events out to in-process subscribers.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber channel size used by New.
const DefaultBuffer = 8

// Event is any value published on the bus.
type Event interface{}

// EventBus is a publish/subscribe bus. Delivery is non-blocking unless the
// subscriber asked for Lossless.
type EventBus interface {
	Publish(Event)
	Subscribe(...SubscribeOption) <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Option configures a Bus.
type Option func(*Bus)

// WithBuffer sets the channel size handed to each subscriber.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// SubscribeOption configures one subscription.
type SubscribeOption func(*subscriber)

// Lossless makes Publish wait for room in the subscriber's channel instead of
// dropping the event. The subscriber must keep reading until its channel is
// closed.
func Lossless() SubscribeOption {
	return func(s *subscriber) { s.lossless = true }
}

type subscriber struct {
	ch       chan Event
	lossless bool
}

// Bus is the default EventBus implementation using fan-out channels.
// A regular subscriber whose channel is full misses the event; Dropped counts
// those misses.
type Bus struct {
	mu      sync.RWMutex
	subs    []subscriber
	closed  bool
	buffer  int
	dropped atomic.Uint64
}

// New creates a new Bus.
func New(opts ...Option) *Bus {
	b := &Bus{buffer: DefaultBuffer}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Publish sends the event to all subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if s.lossless {
			s.ch <- e
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a new subscriber and returns its channel.
// Subscribing to a closed bus yields an already closed channel.
func (b *Bus) Subscribe(opts ...SubscribeOption) <-chan Event {
	s := subscriber{ch: make(chan Event, b.buffer)}
	for _, o := range opts {
		o(&s)
	}
	b.mu.Lock()
	if b.closed {
		close(s.ch)
	} else {
		b.subs = append(b.subs, s)
	}
	b.mu.Unlock()
	return s.ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber lagged.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Close closes all subscriber channels. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}
