// Package eventbus carries reward lifecycle events (see core/events) from
// the orchestrator to in-process observers. Delivery is best-effort: the
// reward path never blocks on a slow observer.
package eventbus

import "sync"

// subscriberBuffer bounds how far an observer may lag before it starts
// missing events.
const subscriberBuffer = 8

// Event is any value published on the bus.
type Event interface{}

// EventBus is the publish side handed to the orchestrator and the subscribe
// side handed to observers.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus fans published events out to every subscriber channel.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// New creates an empty Bus.
func New() *Bus { return &Bus{} }

// Publish sends the event to all subscribers. A subscriber with a full
// channel misses the event rather than stalling the publisher.
func (b *Bus) Publish(e Event) {
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

// Subscribe registers a new subscriber and returns its channel. Subscribing
// to a closed bus returns an already-closed channel.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
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
func (b *Bus) Unsubscribe(sub <-chan Event) {
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

// Close closes all subscriber channels and clears the list.
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

// SubscribeTo returns a channel delivering only events of type T, dropping
// everything else published on the bus. The stop function detaches the
// subscription and closes the typed channel; calling it more than once is
// safe. Closing the bus also closes the channel.
func SubscribeTo[T any](b EventBus) (<-chan T, func()) {
	raw := b.Subscribe()
	out := make(chan T, subscriberBuffer)
	go func() {
		defer close(out)
		for e := range raw {
			if t, ok := e.(T); ok {
				select {
				case out <- t:
				default:
				}
			}
		}
	}()
	var once sync.Once
	stop := func() { once.Do(func() { b.Unsubscribe(raw) }) }
	return out, stop
}
