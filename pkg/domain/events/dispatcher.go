package events

import (
	"context"
	"fmt"
	"sync"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// HandlerFunc handles one event.
type HandlerFunc func(ctx context.Context, event DomainEvent) error

type subscriber struct {
	id      uint64
	name    string
	handler HandlerFunc
}

// Dispatcher fans events out to subscribers synchronously, in subscription
// order. Handlers must not block; views forward events to their own loop.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   map[string][]subscriber
	nextID uint64
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[string][]subscriber)}
}

// Subscribe registers handler for the given event types, or for all events
// when none are given. The returned func removes the subscription.
func (d *Dispatcher) Subscribe(name string, handler HandlerFunc, eventTypes ...string) (unsubscribe func()) {
	if len(eventTypes) == 0 {
		eventTypes = []string{Wildcard}
	}

	d.mu.Lock()
	d.nextID++
	sub := subscriber{id: d.nextID, name: name, handler: handler}
	for _, et := range eventTypes {
		d.subs[et] = append(d.subs[et], sub)
	}
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, et := range eventTypes {
			list := d.subs[et]
			for i, s := range list {
				if s.id == sub.id {
					d.subs[et] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		}
	}
}

// Publish delivers event to every matching subscriber. All handlers run even
// when one fails; failures are collected into a *DispatchError.
func (d *Dispatcher) Publish(ctx context.Context, event DomainEvent) error {
	d.mu.RLock()
	eventType := event.EventType()
	targets := make([]subscriber, 0, len(d.subs[eventType])+len(d.subs[Wildcard]))
	targets = append(targets, d.subs[eventType]...)
	targets = append(targets, d.subs[Wildcard]...)
	d.mu.RUnlock()

	var errs []error
	for _, s := range targets {
		if err := s.handler(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("handler %s failed for event %s: %w", s.name, eventType, err))
		}
	}
	if len(errs) > 0 {
		return &DispatchError{Errors: errs}
	}
	return nil
}

// SubscriberCount returns the number of handlers that would receive an event
// of the given type.
func (d *Dispatcher) SubscriberCount(eventType string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := len(d.subs[eventType])
	if eventType != Wildcard {
		n += len(d.subs[Wildcard])
	}
	return n
}

// DispatchError contains multiple errors from event dispatch.
type DispatchError struct {
	Errors []error
}

func (e *DispatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple dispatch errors (%d)", len(e.Errors))
}

// Unwrap exposes every handler error to errors.Is and errors.As.
func (e *DispatchError) Unwrap() []error {
	return e.Errors
}
