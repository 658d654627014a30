package observable

import (
	"context"
	"sync"
)

// State holds a current value and broadcasts every change to subscribers.
// Subscribers always receive the latest value: intermediate values are dropped
// if a subscriber is slower than the writer.
type State[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	subs    map[chan T]struct{}
}

func NewState[T any](initial T) *State[T] {
	return &State[T]{
		value: initial,
		subs:  make(map[chan T]struct{}),
	}
}

func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Version is incremented on every Set.
func (s *State[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *State[T]) Set(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.version++
	for ch := range s.subs {
		publish(ch, value)
	}
}

// Update applies fn to the current value atomically.
func (s *State[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = fn(s.value)
	s.version++
	for ch := range s.subs {
		publish(ch, s.value)
	}
	return s.value
}

// Subscribe returns a channel that first yields the current value, then every
// new one. The channel is closed once ctx is done.
func (s *State[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	s.mu.Lock()
	ch <- s.value
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// publish replaces any value the subscriber did not consume yet.
func publish[T any](ch chan T, value T) {
	select {
	case ch <- value:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- value
}
