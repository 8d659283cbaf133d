// Package linelock serializes planning runs that touch the same production lines.
package linelock

import (
	"context"
	"slices"
	"sync"
)

// Set hands out per-line mutexes. The zero value is ready to use.
type Set struct {
	mu    sync.Mutex
	locks map[int64]chan struct{}
}

func (s *Set) slot(id int64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[int64]chan struct{})
	}
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

// Lock acquires every id in ascending order and returns the release func.
// Duplicate ids are acquired once. If ctx ends first, locks already taken are
// released and ctx.Err() is returned.
func (s *Set) Lock(ctx context.Context, ids ...int64) (func(), error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]chan struct{}, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	for _, id := range sorted {
		ch := s.slot(id)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}
