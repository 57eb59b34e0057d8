package order

import (
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePedido = "Pedido"

// Event type constants
const (
	EventTypePedidoConfirmado = "order.confirmed"
)

// TicketProducto is a product line as the ticketing service expects it
type TicketProducto struct {
	Nombre   string          `json:"nombre"`
	Cantidad int             `json:"cantidad"`
	Precio   decimal.Decimal `json:"precio"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// TicketPayload is the body POSTed to the ticketing service
type TicketPayload struct {
	Numero           string           `json:"numero"`
	ClienteNombre    string           `json:"cliente_nombre"`
	ClienteDireccion string           `json:"cliente_direccion"`
	ClienteTelefono  string           `json:"cliente_telefono"`
	ClienteEmail     string           `json:"cliente_email"`
	Productos        []TicketProducto `json:"productos"`
	Total            decimal.Decimal  `json:"total"`
	MetodoPago       string           `json:"metodo_pago"`
	Fecha            string           `json:"fecha"`
	Indicaciones     string           `json:"indicaciones"`
	Estado           string           `json:"estado"`
	Prioridad        string           `json:"prioridad"`
	TipoCliente      string           `json:"tipo_cliente"`
}

// PedidoConfirmadoEvent is written to the outbox with the order and carries
// everything needed to open the delivery ticket.
type PedidoConfirmadoEvent struct {
	shared.BaseDomainEvent
	PedidoID uint          `json:"pedido_id"`
	Ticket   TicketPayload `json:"ticket"`
}

// NewPedidoConfirmadoEvent creates a new PedidoConfirmadoEvent
func NewPedidoConfirmadoEvent(p *Pedido, ticket TicketPayload) *PedidoConfirmadoEvent {
	return &PedidoConfirmadoEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePedidoConfirmado, AggregateTypePedido, p.Numero),
		PedidoID:        p.ID,
		Ticket:          ticket,
	}
}

// EventType returns the event type name
func (e *PedidoConfirmadoEvent) EventType() string {
	return EventTypePedidoConfirmado
}
