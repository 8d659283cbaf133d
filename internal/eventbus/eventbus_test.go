package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	assert.Equal(t, "hello", v)
	bus.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok, "unsubscribed channel should be closed")
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)

	// publishing after close is a no-op
	bus.Publish("late")
	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	require.NotPanics(t, func() { bus.Unsubscribe(ch) })
}

func TestBusDropsWhenSubscriberLags(t *testing.T) {
	bus := New(WithBuffer(2))
	ch := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(i)
	}
	assert.Equal(t, uint64(3), bus.Dropped())
	assert.Equal(t, 0, <-ch)
	assert.Equal(t, 1, <-ch)
}

func TestBusLosslessSubscriberWaits(t *testing.T) {
	bus := New(WithBuffer(1))
	lossy := bus.Subscribe()
	ch := bus.Subscribe(Lossless())

	got := make(chan []int)
	go func() {
		var seen []int
		for v := range ch {
			seen = append(seen, v.(int))
			time.Sleep(time.Millisecond)
		}
		got <- seen
	}()
	for i := 0; i < 10; i++ {
		bus.Publish(i)
	}
	bus.Close()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, <-got)
	// only the regular subscriber counts misses
	assert.Equal(t, uint64(9), bus.Dropped())
	assert.Equal(t, 0, <-lossy)
}
