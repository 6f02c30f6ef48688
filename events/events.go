package events

import (
	"context"
	"sync"

	"creditmeter/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeCreditsConsumed EventType = "credits_consumed"
	EventTypeCreditsReleased EventType = "credits_released"
	EventTypeCreditsGranted  EventType = "credits_granted"
	EventTypeQuotaExhausted  EventType = "quota_exhausted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// CreditsConsumedEvent represents a successful consume against an owner's pool
type CreditsConsumedEvent struct {
	OwnerID   int64
	AccountID int64
	Module    models.Module
	Amount    int64
	UsedAfter int64
	Credits   int64
}

func (e CreditsConsumedEvent) Type() EventType {
	return EventTypeCreditsConsumed
}

// CreditsReleasedEvent represents a compensating release back into a pool
type CreditsReleasedEvent struct {
	OwnerID   int64
	AccountID int64
	Module    models.Module
	Amount    int64
	UsedAfter int64
}

func (e CreditsReleasedEvent) Type() EventType {
	return EventTypeCreditsReleased
}

// CreditsGrantedEvent represents an administrative pool resize
type CreditsGrantedEvent struct {
	OwnerID    int64
	Module     models.Module
	OldCredits int64
	NewCredits int64
}

func (e CreditsGrantedEvent) Type() EventType {
	return EventTypeCreditsGranted
}

// QuotaExhaustedEvent represents a consume rejected for lack of capacity
type QuotaExhaustedEvent struct {
	OwnerID   int64
	AccountID int64
	Module    models.Module
	Requested int64
	Available int64
}

func (e QuotaExhaustedEvent) Type() EventType {
	return EventTypeQuotaExhausted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the ledger path
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after a successful commit.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Events are processed independently of the transaction lifecycle, so a
	// background context is used to outlive the request context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after a rollback to drop pending events
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
