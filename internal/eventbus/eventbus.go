// Package eventbus carries planning events (stage progress, settled
// plans) from the core pipeline to in-process observers.
package eventbus

import "sync"

// Bus fans published events out to every subscriber. Delivery is
// non-blocking: a subscriber whose buffer is full misses the event
// rather than stalling the planner.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan any
	closed bool
}

// New returns an empty Bus ready for subscribers.
func New() *Bus { return &Bus{} }

// Publish delivers e to all current subscribers.
func (b *Bus) Publish(e any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel. The
// channel is closed by Unsubscribe or Close.
func (b *Bus) Subscribe() <-chan any {
	ch := make(chan any, 8)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
