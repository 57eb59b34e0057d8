package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/realtime"
	"go.uber.org/zap"
)

// ticketEventTypes are the events shown live on the dashboard
var ticketEventTypes = []string{
	ticket.EventTypeTicketCreado,
	ticket.EventTypeTicketActualizado,
	ticket.EventTypeTicketAsignado,
	ticket.EventTypeTicketEliminado,
	ticket.EventTypeTicketArchivado,
}

// Broadcaster fans a message out to connected dashboards
type Broadcaster interface {
	Broadcast(msg realtime.Message)
}

// BroadcastHandler pushes ticket events to the live dashboard feed. The event
// type is the SSE event name.
type BroadcastHandler struct {
	hub    Broadcaster
	logger *zap.Logger
}

// NewBroadcastHandler creates a new live feed handler
func NewBroadcastHandler(hub Broadcaster, logger *zap.Logger) *BroadcastHandler {
	return &BroadcastHandler{hub: hub, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *BroadcastHandler) EventTypes() []string {
	return ticketEventTypes
}

// Handle broadcasts the event, scoped to the ticket's courier
func (h *BroadcastHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %v: %w", event.EventType(), err, shared.ErrPermanentDelivery)
	}
	h.hub.Broadcast(realtime.Message{
		Event:      event.EventType(),
		ID:         event.EventID().String(),
		Data:       data,
		Repartidor: repartidorOf(event),
	})
	h.logger.Debug("ticket event broadcast",
		zap.String("event_type", event.EventType()),
		zap.String("numero", event.AggregateID()))
	return nil
}

// BrokerHandler forwards ticket events to the external message broker
type BrokerHandler struct {
	publisher realtime.Publisher
	logger    *zap.Logger
}

// NewBrokerHandler creates a new broker forwarding handler
func NewBrokerHandler(publisher realtime.Publisher, logger *zap.Logger) *BrokerHandler {
	return &BrokerHandler{publisher: publisher, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *BrokerHandler) EventTypes() []string {
	return ticketEventTypes
}

// Handle publishes the event under its type; the event id lets consumers
// drop redeliveries.
func (h *BrokerHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %v: %w", event.EventType(), err, shared.ErrPermanentDelivery)
	}
	if err := h.publisher.Publish(ctx, event.EventType(), event.EventID().String(), body); err != nil {
		return fmt.Errorf("publish %s for %s: %w", event.EventType(), event.AggregateID(), err)
	}
	return nil
}

func repartidorOf(event shared.DomainEvent) string {
	switch ev := event.(type) {
	case *ticket.TicketCreadoEvent:
		return ev.Repartidor
	case *ticket.TicketActualizadoEvent:
		return ev.Repartidor
	case *ticket.TicketAsignadoEvent:
		return ev.Repartidor
	case *ticket.TicketArchivadoEvent:
		return ev.Repartidor
	}
	return ""
}

var (
	_ shared.EventHandler = (*BroadcastHandler)(nil)
	_ shared.EventHandler = (*BrokerHandler)(nil)
)
