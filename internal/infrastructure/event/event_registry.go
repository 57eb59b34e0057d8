package event

import (
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/ticket"
)

// RegisterStorefrontEvents registers the event types the storefront writes
// to its outbox, so the processor can decode them.
func RegisterStorefrontEvents(serializer *EventSerializer) {
	serializer.Register(order.EventTypePedidoConfirmado, &order.PedidoConfirmadoEvent{})
}

// RegisterTicketingEvents registers the event types the ticketing service
// writes to its outbox.
func RegisterTicketingEvents(serializer *EventSerializer) {
	serializer.Register(ticket.EventTypeTicketCreado, &ticket.TicketCreadoEvent{})
	serializer.Register(ticket.EventTypeTicketActualizado, &ticket.TicketActualizadoEvent{})
	serializer.Register(ticket.EventTypeTicketAsignado, &ticket.TicketAsignadoEvent{})
	serializer.Register(ticket.EventTypeTicketEliminado, &ticket.TicketEliminadoEvent{})
	serializer.Register(ticket.EventTypeTicketArchivado, &ticket.TicketArchivadoEvent{})
}
