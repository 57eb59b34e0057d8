package shared

import "time"

// BaseAggregateRoot is embedded by Pedido and Ticket. ID is assigned by the
// database on first save; events queue up until the owning service has
// written them to the outbox.
type BaseAggregateRoot struct {
	ID        uint
	CreatedAt time.Time
	UpdatedAt time.Time
	pending   []DomainEvent
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{CreatedAt: now, UpdatedAt: now}
}

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the queued events without removing them
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

// ClearDomainEvents drops the queue once the events are committed
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}

func (a *BaseAggregateRoot) Touch() {
	a.UpdatedAt = time.Now()
}
