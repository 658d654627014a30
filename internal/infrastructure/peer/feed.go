package peer

import (
	"context"
	"sync"

	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
)

const subscriberBuffer = 64

// Feed is an in-process PeerEventSource. Every subscriber receives every
// published event in order. Publish blocks while a subscriber buffer is full.
type Feed struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	ch   chan ports.PeerEvent
	done chan struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[*subscriber]struct{})}
}

func (f *Feed) Events(ctx context.Context) <-chan ports.PeerEvent {
	sub := &subscriber{
		ch:   make(chan ports.PeerEvent, subscriberBuffer),
		done: make(chan struct{}),
	}

	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		close(sub.done)
		f.mu.Lock()
		delete(f.subs, sub)
		close(sub.ch)
		f.mu.Unlock()
	}()
	return sub.ch
}

func (f *Feed) Publish(ctx context.Context, event ports.PeerEvent) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.subs {
		select {
		case sub.ch <- event:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
