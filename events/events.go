package events

import (
	"context"
	"sync"
	"time"

	"pairline/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeMatchCreated        EventType = "match_created"
	EventTypeMatchEnded          EventType = "match_ended"
	EventTypeRoomPresenceChanged EventType = "room_presence_changed"
	EventTypeBanIssued           EventType = "ban_issued"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// MatchCreatedEvent represents two users being paired into a match
type MatchCreatedEvent struct {
	MatchID int64
	UserA   int64
	UserB   int64
}

func (e MatchCreatedEvent) Type() EventType {
	return EventTypeMatchCreated
}

// MatchEndedEvent represents a match transitioning to ended.
// Moderation is true when the transition was forced by a moderator.
type MatchEndedEvent struct {
	MatchID    int64
	EndedBy    int64
	Moderation bool
}

func (e MatchEndedEvent) Type() EventType {
	return EventTypeMatchEnded
}

// RoomPresenceChangedEvent represents a committed membership change in a room
type RoomPresenceChangedEvent struct {
	RoomID int64
	UserID int64
	Joined bool
}

func (e RoomPresenceChangedEvent) Type() EventType {
	return EventTypeRoomPresenceChanged
}

// BanIssuedEvent represents a new ban being recorded
type BanIssuedEvent struct {
	BanID     int64
	Scope     models.BanScope
	IssuedBy  int64
	ExpiresAt *time.Time
}

func (e BanIssuedEvent) Type() EventType {
	return EventTypeBanIssued
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

	// Call handlers asynchronously to avoid blocking the caller
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

// TransactionalBus stashes events published during a unit of work and only
// hands them to the real bus once the transaction has committed. Fan-out
// therefore never reflects state that was rolled back.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events outlive the transaction's context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		log.WithFields(log.Fields{
			"eventType": ev.Type(),
		}).Debug("Emitting committed event")
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events; called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
