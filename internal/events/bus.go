// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// EventPostingsChanged is published after a posting is created, updated or
// deleted through the console.
const EventPostingsChanged = "postings.changed"

// Change kinds carried by EventPostingsChanged.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Event is a single message on the bus.
type Event struct {
	Type    string
	Payload any
}

// PostingChange is the payload of EventPostingsChanged.
type PostingChange struct {
	Kind string
	ID   string
}

// Handler reacts to one event.
type Handler func(ctx context.Context, event Event) error

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-process pub/sub. Handlers run synchronously in subscription
// order, so a publisher observes their effects once Publish returns.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]subscription
	nextID      uint64
	closed      bool
	logger      *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]subscription),
		logger:      logger.With("component", "event-bus"),
	}
}

// Subscribe registers handler for eventType and returns a func that removes it.
func (b *Bus) Subscribe(eventType string, handler Handler) (func(), error) {
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("event bus is closed")
	}

	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, handler: handler})
	b.logger.Debug("event handler subscribed", "event_type", eventType, "subscriber_count", len(b.subscribers[eventType]))

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(eventType, id) })
	}, nil
}

func (b *Bus) unsubscribe(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[eventType]) == 0 {
		delete(b.subscribers, eventType)
	}
}

// Publish delivers event to every current subscriber. Handler errors are
// logged and joined; a failing handler does not stop the others.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}
	subs := append([]subscription(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.logger.Debug("no subscribers for event", "event_type", event.Type)
		return nil
	}

	var errs []error
	for _, s := range subs {
		if err := s.handler(ctx, event); err != nil {
			b.logger.Error("event handler failed", "event_type", event.Type, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close drops all subscribers. Later publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subscribers = make(map[string][]subscription)
}
