package event

import (
	"reflect"
	"sync"
)

// Bus is a typed event queue. Events emitted during a tick are held until
// the scheduler calls DispatchAll at tick end, after collision resolution is
// final, so subscribers (renderer, audio, soak logging) never observe a
// half-resolved tick. Dispatch preserves emission order.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	queue    []queued
	handlers map[reflect.Type][]any
}

type queued struct {
	t  reflect.Type
	ev any
}

func NewBus() *Bus {
	return &Bus{
		queue:    make([]queued, 0, 64),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event for end-of-tick delivery.
func Emit[T any](b *Bus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.queue = append(b.queue, queued{t: t, ev: event})
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// DispatchAll delivers every queued event to its subscribed handlers and
// clears the queue. Called once per tick by the scheduler.
func (b *Bus) DispatchAll() {
	for _, q := range b.queue {
		for _, h := range b.handlers[q.t] {
			// Type-assert via reflect; safe because Subscribe and Emit
			// use the same type key.
			callHandler(h, q.ev)
		}
	}
	b.queue = b.queue[:0]
}

// Pending reports the number of undispatched events. Diagnostics only.
func (b *Bus) Pending() int { return len(b.queue) }

// Clear drops queued events without delivery (session restart).
func (b *Bus) Clear() { b.queue = b.queue[:0] }

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
