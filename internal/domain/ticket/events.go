package ticket

import (
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeTicket = "Ticket"

// Event type constants. They double as the real-time channel names the
// dashboard listens on.
const (
	EventTypeTicketCreado      = "nuevo_ticket"
	EventTypeTicketActualizado = "ticket_actualizado"
	EventTypeTicketAsignado    = "ticket_asignado"
	EventTypeTicketEliminado   = "ticket_eliminado"
	EventTypeTicketArchivado   = "ticket_archivado"
)

// TicketCreadoEvent is raised when an order is received as a ticket
type TicketCreadoEvent struct {
	shared.BaseDomainEvent
	TicketID      uint            `json:"ticket_id"`
	Numero        string          `json:"numero"`
	ClienteNombre string          `json:"cliente_nombre"`
	Estado        Estado          `json:"estado"`
	Repartidor    string          `json:"repartidor"`
	Prioridad     Prioridad       `json:"prioridad"`
	TipoCliente   TipoCliente     `json:"tipo_cliente"`
	Total         decimal.Decimal `json:"total"`
}

// NewTicketCreadoEvent creates a new TicketCreadoEvent
func NewTicketCreadoEvent(t *Ticket) *TicketCreadoEvent {
	return &TicketCreadoEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketCreado, AggregateTypeTicket, t.Numero),
		TicketID:        t.ID,
		Numero:          t.Numero,
		ClienteNombre:   t.ClienteNombre,
		Estado:          t.Estado,
		Repartidor:      t.Repartidor,
		Prioridad:       t.Prioridad,
		TipoCliente:     t.TipoCliente,
		Total:           t.Total,
	}
}

// EventType returns the event type name
func (e *TicketCreadoEvent) EventType() string {
	return EventTypeTicketCreado
}

// TicketActualizadoEvent is raised when estado, prioridad or indicaciones change
type TicketActualizadoEvent struct {
	shared.BaseDomainEvent
	TicketID      uint        `json:"ticket_id"`
	Numero        string      `json:"numero"`
	Estado        Estado      `json:"estado"`
	EstadoEnvio   EstadoEnvio `json:"estado_envio"`
	Prioridad     Prioridad   `json:"prioridad"`
	Repartidor    string      `json:"repartidor"`
	FechaCreacion time.Time   `json:"fecha_creacion"`
	FechaUpdate   time.Time   `json:"fecha_actualizacion"`
}

// NewTicketActualizadoEvent creates a new TicketActualizadoEvent
func NewTicketActualizadoEvent(t *Ticket) *TicketActualizadoEvent {
	return &TicketActualizadoEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketActualizado, AggregateTypeTicket, t.Numero),
		TicketID:        t.ID,
		Numero:          t.Numero,
		Estado:          t.Estado,
		EstadoEnvio:     t.EstadoEnvio,
		Prioridad:       t.Prioridad,
		Repartidor:      t.Repartidor,
		FechaCreacion:   t.CreatedAt,
		FechaUpdate:     t.UpdatedAt,
	}
}

// EventType returns the event type name
func (e *TicketActualizadoEvent) EventType() string {
	return EventTypeTicketActualizado
}

// TicketAsignadoEvent is raised when a courier is (re)assigned
type TicketAsignadoEvent struct {
	shared.BaseDomainEvent
	TicketID   uint   `json:"ticket_id"`
	Numero     string `json:"numero"`
	Repartidor string `json:"repartidor"`
}

// NewTicketAsignadoEvent creates a new TicketAsignadoEvent
func NewTicketAsignadoEvent(t *Ticket) *TicketAsignadoEvent {
	return &TicketAsignadoEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketAsignado, AggregateTypeTicket, t.Numero),
		TicketID:        t.ID,
		Numero:          t.Numero,
		Repartidor:      t.Repartidor,
	}
}

// EventType returns the event type name
func (e *TicketAsignadoEvent) EventType() string {
	return EventTypeTicketAsignado
}

// TicketEliminadoEvent is raised when a ticket is deleted from the dashboard
type TicketEliminadoEvent struct {
	shared.BaseDomainEvent
	TicketID uint   `json:"ticket_id"`
	Numero   string `json:"numero"`
}

// NewTicketEliminadoEvent creates a new TicketEliminadoEvent
func NewTicketEliminadoEvent(t *Ticket) *TicketEliminadoEvent {
	return &TicketEliminadoEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketEliminado, AggregateTypeTicket, t.Numero),
		TicketID:        t.ID,
		Numero:          t.Numero,
	}
}

// EventType returns the event type name
func (e *TicketEliminadoEvent) EventType() string {
	return EventTypeTicketEliminado
}

// TicketArchivadoEvent is raised when a closed ticket moves to the registro
type TicketArchivadoEvent struct {
	shared.BaseDomainEvent
	TicketID      uint      `json:"ticket_id"`
	Numero        string    `json:"numero"`
	EstadoFinal   Estado    `json:"estado_final"`
	Repartidor    string    `json:"repartidor"`
	FechaCreacion time.Time `json:"fecha_creacion"`
}

// NewTicketArchivadoEvent creates a new TicketArchivadoEvent
func NewTicketArchivadoEvent(t *Ticket) *TicketArchivadoEvent {
	return &TicketArchivadoEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketArchivado, AggregateTypeTicket, t.Numero),
		TicketID:        t.ID,
		Numero:          t.Numero,
		EstadoFinal:     t.Estado,
		Repartidor:      t.Repartidor,
		FechaCreacion:   t.CreatedAt,
	}
}

// EventType returns the event type name
func (e *TicketArchivadoEvent) EventType() string {
	return EventTypeTicketArchivado
}
