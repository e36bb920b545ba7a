package inproc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"incident_commander/internal/domain"
)

var (
	ErrSubscriberQueueFull = errors.New("subscriber queue is full")
	ErrBusClosed           = errors.New("bus is closed")
)

// Bus fans playback snapshots out to registered subscribers. Sends never
// block: a subscriber that falls behind misses snapshots and the publisher is
// told which ones were skipped.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan domain.DemoState
	buffer int
	closed bool
}

func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[string]chan domain.DemoState),
		buffer: buffer,
	}
}

func (b *Bus) Register(subscriberID string) <-chan domain.DemoState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[subscriberID]; ok {
		return ch
	}
	ch := make(chan domain.DemoState, b.buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[subscriberID] = ch
	return ch
}

func (b *Bus) Unregister(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subs[subscriberID]
	if !ok {
		return
	}
	delete(b.subs, subscriberID)
	close(ch)
}

func (b *Bus) Publish(state domain.DemoState) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	var dropped []string
	for id, ch := range b.subs {
		select {
		case ch <- state:
		default:
			dropped = append(dropped, id)
		}
	}
	if len(dropped) > 0 {
		sort.Strings(dropped)
		return fmt.Errorf("%w: %s", ErrSubscriberQueueFull, strings.Join(dropped, ","))
	}
	return nil
}

// Close closes every subscriber channel; later publishes fail with
// ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
