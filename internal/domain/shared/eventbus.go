package shared

import "context"

// EventHandler reacts to one or more event types. A returned error leaves
// the outbox entry undelivered so it is retried with backoff; wrap
// ErrPermanentDelivery to dead-letter it instead.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types to subscribe to; empty means every type
	EventTypes() []string
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is what the outbox processor delivers into
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// OutboxEventSaver writes events as outbox rows using tx, the *gorm.DB
// transaction that also wrote the order or ticket.
type OutboxEventSaver interface {
	SaveEvents(ctx context.Context, tx any, events ...DomainEvent) error
}
