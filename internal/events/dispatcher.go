// Package events distributes tracker domain events to interested observers
// (the companion API's websocket hub, logging, tests). It also wraps the
// host's own callback registration, which supports no deregistration, in a
// Subscription handle that can be deactivated instead.
package events

import (
	"context"
	"log"
	"sync"
)

// Event is one domain event flowing out of the tracker.
type Event struct {
	// Type is the event type (e.g. "match:started", "turn:updated").
	Type string

	// Data is the typed event payload, one of the structs in messages.go.
	Data any

	// Context provides execution context for the event.
	Context context.Context
}

// Observer receives dispatched events.
type Observer interface {
	// OnEvent is called for each event the observer accepts.
	OnEvent(event Event) error

	// Name is a human-readable identifier for logging.
	Name() string

	// ShouldHandle filters the event types this observer cares about.
	ShouldHandle(eventType string) bool
}

// Dispatcher fans events out to registered observers. Thread-safe.
type Dispatcher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register adds an observer; it receives all future events it accepts.
func (d *Dispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, observer)
	log.Printf("[events] registered observer: %s", observer.Name())
}

// Unregister removes an observer.
func (d *Dispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, obs := range d.observers {
		if obs == observer {
			d.observers[i] = d.observers[len(d.observers)-1]
			d.observers = d.observers[:len(d.observers)-1]
			log.Printf("[events] unregistered observer: %s", observer.Name())
			return
		}
	}
}

// Dispatch notifies observers sequentially in registration order. An
// observer error is logged and does not stop delivery to the rest.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			log.Printf("[events] observer %s failed to handle %s: %v", observer.Name(), event.Type, err)
		}
	}
}

// ObserverCount returns the number of registered observers.
func (d *Dispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Subscription gates callbacks from a host-owned callback list that cannot
// actually be deregistered. Closing the subscription makes late-arriving
// callbacks no-op instead of touching torn-down state.
type Subscription struct {
	mu     sync.RWMutex
	active bool
}

// NewSubscription returns an active subscription handle.
func NewSubscription() *Subscription {
	return &Subscription{active: true}
}

// Active reports whether callbacks should still be processed.
func (s *Subscription) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Close deactivates the subscription. Idempotent.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}
