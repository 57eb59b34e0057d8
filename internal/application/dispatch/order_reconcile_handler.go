package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/integration"
	"go.uber.org/zap"
)

// snapshotTimeLayout is the date format of the storefront sync table
const snapshotTimeLayout = "2006-01-02 15:04:05"

// StorefrontSyncer writes ticket progress back to the storefront
type StorefrontSyncer interface {
	UpdatePedidoEstado(ctx context.Context, numero, estado string) error
	SyncTickets(ctx context.Context, tickets []integration.TicketSnapshot) error
}

// OrderReconcileHandler mirrors ticket progress onto the storefront order
// and its ticket snapshot.
type OrderReconcileHandler struct {
	storefront StorefrontSyncer
	logger     *zap.Logger
}

// NewOrderReconcileHandler creates a new reconcile handler
func NewOrderReconcileHandler(storefront StorefrontSyncer, logger *zap.Logger) *OrderReconcileHandler {
	return &OrderReconcileHandler{storefront: storefront, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderReconcileHandler) EventTypes() []string {
	return []string{
		ticket.EventTypeTicketCreado,
		ticket.EventTypeTicketActualizado,
		ticket.EventTypeTicketArchivado,
	}
}

// Handle pushes the estado (when the order should move) and the snapshot
func (h *OrderReconcileHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var (
		snap       integration.TicketSnapshot
		estado     ticket.Estado
		moveEstado bool
	)
	switch ev := event.(type) {
	case *ticket.TicketCreadoEvent:
		estado = ev.Estado
		snap = snapshot(ev.Numero, ev.TicketID, ev.Estado, ev.Repartidor, ev.OccurredAt(), ev.OccurredAt(), ev)
	case *ticket.TicketActualizadoEvent:
		estado, moveEstado = ev.Estado, true
		snap = snapshot(ev.Numero, ev.TicketID, ev.Estado, ev.Repartidor, ev.FechaCreacion, ev.FechaUpdate, ev)
	case *ticket.TicketArchivadoEvent:
		estado, moveEstado = ev.EstadoFinal, true
		snap = snapshot(ev.Numero, ev.TicketID, ev.EstadoFinal, ev.Repartidor, ev.FechaCreacion, ev.OccurredAt(), ev)
	default:
		return fmt.Errorf("unexpected event type %s: %w", event.EventType(), shared.ErrPermanentDelivery)
	}

	numero := event.AggregateID()
	if moveEstado {
		target, err := order.ParseEstado(string(estado))
		if err != nil {
			return fmt.Errorf("map estado of %s: %v: %w", numero, err, shared.ErrPermanentDelivery)
		}
		err = h.storefront.UpdatePedidoEstado(ctx, numero, string(target))
		switch {
		case errors.Is(err, integration.ErrRemoteConflict):
			// the order is closed or already further along on the storefront
			h.logger.Info("storefront order already past this estado",
				zap.String("numero", numero),
				zap.String("estado", string(target)))
		case err != nil:
			return fmt.Errorf("update order %s: %w", numero, err)
		}
	}

	if err := h.storefront.SyncTickets(ctx, []integration.TicketSnapshot{snap}); err != nil {
		return fmt.Errorf("sync ticket %s: %w", numero, err)
	}
	h.logger.Debug("order reconciled",
		zap.String("numero", numero),
		zap.String("event_type", event.EventType()),
		zap.String("estado", string(estado)))
	return nil
}

func snapshot(numero string, ticketID uint, estado ticket.Estado, repartidor string, created, updated time.Time, ev shared.DomainEvent) integration.TicketSnapshot {
	snap := integration.TicketSnapshot{
		NumeroPedido:       numero,
		TicketID:           ticketID,
		Estado:             string(estado),
		Repartidor:         repartidor,
		FechaCreacion:      created.Format(snapshotTimeLayout),
		FechaActualizacion: updated.Format(snapshotTimeLayout),
	}
	if raw, err := json.Marshal(ev); err == nil {
		snap.Datos = raw
	}
	return snap
}

var _ shared.EventHandler = (*OrderReconcileHandler)(nil)
