package router

import (
	"log/slog"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Event type identifiers, "category.action".
const (
	EventNavigated        = "navigation.navigated"
	EventNavigationFailed = "navigation.failed"
	EventRegionActivated  = "region.activated"
	EventSuperseded       = "navigation.superseded"
)

// Event is implemented by everything published on the Bus.
type Event interface {
	EventType() string
	Timestamp() time.Time
}

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// NavigatedEvent is raised when a request commits.
type NavigatedEvent struct {
	baseEvent
	Region string
	Entry  *Entry
	Kind   TransitionKind
}

// NavigationFailedEvent is raised when a request terminates Failed.
type NavigationFailedEvent struct {
	baseEvent
	Region string
	Key    Key
	Kind   ErrorKind
	Err    error
}

// RegionActivatedEvent is raised when a region's host starts showing a
// different entry. Entry is nil when the region was emptied.
type RegionActivatedEvent struct {
	baseEvent
	Region string
	Entry  *Entry
}

// SupersededEvent is raised when a request is preempted by a newer one.
type SupersededEvent struct {
	baseEvent
	Region string
	Key    Key
	Seq    uint64
}

// Handler receives published events.
type Handler func(Event)

type subscription struct {
	id      string
	handler Handler
}

// Bus is a synchronous pub-sub bus. The controller publishes on the UI loop,
// so handlers run there too and must not block.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // eventType -> subscriptions
	nextID        atomic.Uint64
	log           *slog.Logger
}

// NewBus creates an empty Bus.
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Bus{
		subscriptions: make(map[string][]subscription),
		log:           log,
	}
}

// Subscribe registers a handler for one event type and returns its id.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := "sub-" + strconv.FormatUint(b.nextID.Inc(), 10)
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{id: id, handler: handler})
	return id
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe("*", handler)
}

// Unsubscribe removes a subscription by id.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id == id {
				b.subscriptions[eventType] = append(subs[:i:i], subs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Publish calls the handlers for event's type, then wildcard handlers, each
// group in registration order. A panicking handler is logged and skipped.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	specific := append([]subscription(nil), b.subscriptions[event.EventType()]...)
	wildcard := append([]subscription(nil), b.subscriptions["*"]...)
	b.mu.RUnlock()

	for _, sub := range specific {
		b.safeCall(sub.handler, event)
	}
	for _, sub := range wildcard {
		b.safeCall(sub.handler, event)
	}
}

func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Event handler panicked", "event", event.EventType(), "panic", r, "stack", string(debug.Stack()))
		}
	}()
	handler(event)
}

// SubscriptionCount returns the number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
