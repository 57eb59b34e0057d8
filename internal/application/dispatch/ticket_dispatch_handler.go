// Package dispatch holds the outbox event handlers that carry committed
// changes to the other service, to connected dashboards and to the broker.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/infrastructure/integration"
	"go.uber.org/zap"
)

// TicketCreator opens delivery tickets on the ticketing service
type TicketCreator interface {
	CreateTicket(ctx context.Context, payload order.TicketPayload) (*integration.TicketReceipt, error)
}

// TicketDispatchHandler delivers confirmed orders to the ticketing service.
// Retryable failures are returned so the outbox backs off; rejected payloads
// carry shared.ErrPermanentDelivery and go straight to the dead letters.
type TicketDispatchHandler struct {
	tickets TicketCreator
	logger  *zap.Logger
}

// NewTicketDispatchHandler creates a new handler for order.confirmed events
func NewTicketDispatchHandler(tickets TicketCreator, logger *zap.Logger) *TicketDispatchHandler {
	return &TicketDispatchHandler{tickets: tickets, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *TicketDispatchHandler) EventTypes() []string {
	return []string{order.EventTypePedidoConfirmado}
}

// Handle posts the ticket payload carried by the event
func (h *TicketDispatchHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	ev, ok := event.(*order.PedidoConfirmadoEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s: %w",
			order.EventTypePedidoConfirmado, event.EventType(), shared.ErrPermanentDelivery)
	}

	receipt, err := h.tickets.CreateTicket(ctx, ev.Ticket)
	if errors.Is(err, integration.ErrRemoteConflict) {
		h.logger.Info("ticket already exists remotely", zap.String("numero", ev.Ticket.Numero))
		return nil
	}
	if err != nil {
		return fmt.Errorf("deliver order %s: %w", ev.Ticket.Numero, err)
	}

	h.logger.Info("order delivered to ticketing",
		zap.String("numero", ev.Ticket.Numero),
		zap.Uint("pedido_id", ev.PedidoID),
		zap.Uint("ticket_id", receipt.TicketID),
		zap.String("repartidor", receipt.Repartidor),
		zap.Bool("duplicado", receipt.Duplicado),
	)
	return nil
}

var _ shared.EventHandler = (*TicketDispatchHandler)(nil)
