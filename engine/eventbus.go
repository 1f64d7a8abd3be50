package engine

import (
	"sync"
	"time"
)

// EventType tags which payload struct from events.go an Event carries.
type EventType int

type Event struct {
	Type    EventType
	At      time.Time
	Payload any
}

// EventBus fans fleet events out to listeners registered per type.
// Delivery is synchronous on the emitting goroutine, so listeners that
// do slow work (SMS, outbound HTTP) hand it off to their own goroutine.
type EventBus struct {
	mu        sync.RWMutex
	listeners map[EventType][]func(Event)
}

func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[EventType][]func(Event))}
}

// SubscribeTypes registers fn for each of the given event types.
func (b *EventBus) SubscribeTypes(fn func(Event), types ...EventType) {
	b.mu.Lock()
	for _, t := range types {
		b.listeners[t] = append(b.listeners[t], fn)
	}
	b.mu.Unlock()
}

// Emit delivers evt to every listener of its type before returning. The
// listener list is copied out under the lock, so a listener may emit
// further events without deadlocking.
func (b *EventBus) Emit(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	b.mu.RLock()
	fns := make([]func(Event), len(b.listeners[evt.Type]))
	copy(fns, b.listeners[evt.Type])
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(evt)
	}
}
