package ticket

import (
	"fmt"
	"strings"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Producto is one line of the order carried by a ticket. Legacy senders
// post bare product names, in which case only Nombre is set.
type Producto struct {
	Nombre   string          `json:"nombre"`
	Cantidad int             `json:"cantidad,omitempty"`
	Precio   decimal.Decimal `json:"precio"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Ticket is a delivery job mirroring one storefront order
type Ticket struct {
	shared.BaseAggregateRoot
	Numero           string
	ClienteNombre    string
	ClienteDireccion string
	ClienteTelefono  string
	ClienteEmail     string
	Productos        []Producto
	Total            decimal.Decimal
	MetodoPago       string
	Estado           Estado
	EstadoEnvio      EstadoEnvio
	Prioridad        Prioridad
	TipoCliente      TipoCliente
	Indicaciones     string
	Repartidor       string
	FechaEnvio       *time.Time
	FechaEntrega     *time.Time
}

// NewTicketParams carries the data of an incoming order
type NewTicketParams struct {
	Numero           string
	ClienteNombre    string
	ClienteDireccion string
	ClienteTelefono  string
	ClienteEmail     string
	Productos        []Producto
	Total            *decimal.Decimal
	MetodoPago       string
	Estado           string
	Prioridad        string
	TipoCliente      string
	Indicaciones     string
}

// NewTicket validates an incoming order and builds a pending ticket
func NewTicket(p NewTicketParams) (*Ticket, error) {
	if strings.TrimSpace(p.Numero) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "numero is required")
	}
	if strings.TrimSpace(p.ClienteNombre) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "cliente_nombre is required")
	}
	if len(p.Productos) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "productos is required")
	}
	if p.Total == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "total is required")
	}
	if p.Total.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "total cannot be negative")
	}

	estado := EstadoPendiente
	if e := Estado(p.Estado); e == EstadoEnPreparacion {
		estado = e
	}
	tipo := ParseTipoCliente(p.TipoCliente)

	t := &Ticket{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Numero:            strings.TrimSpace(p.Numero),
		ClienteNombre:     strings.TrimSpace(p.ClienteNombre),
		ClienteDireccion:  p.ClienteDireccion,
		ClienteTelefono:   p.ClienteTelefono,
		ClienteEmail:      p.ClienteEmail,
		Productos:         p.Productos,
		Total:             *p.Total,
		MetodoPago:        p.MetodoPago,
		Estado:            estado,
		EstadoEnvio:       EnvioFor(estado),
		Prioridad:         DerivePrioridad(p.Prioridad, tipo),
		TipoCliente:       tipo,
		Indicaciones:      p.Indicaciones,
	}
	return t, nil
}

// IsTerminal reports whether the ticket reached a final estado
func (t *Ticket) IsTerminal() bool {
	return t.Estado.IsTerminal()
}

// ChangeEstado moves the ticket along its lifecycle. Setting the current
// estado again is a no-op.
func (t *Ticket) ChangeEstado(target Estado) error {
	if !target.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown estado %q", target))
	}
	if t.Estado == target {
		return nil
	}
	if !t.Estado.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot move ticket %s from %s to %s", t.Numero, t.Estado, target))
	}

	now := time.Now()
	t.Estado = target
	t.EstadoEnvio = EnvioFor(target)
	switch target {
	case EstadoEnCamino:
		t.FechaEnvio = &now
	case EstadoEntregado:
		if t.FechaEnvio == nil {
			t.FechaEnvio = &now
		}
		t.FechaEntrega = &now
	}
	t.UpdatedAt = now
	return nil
}

// UpdateParams holds the optional dashboard edits; nil fields are left alone
type UpdateParams struct {
	Estado       *Estado
	Prioridad    *Prioridad
	Indicaciones *string
}

// Update applies a dashboard edit and records a TicketActualizado event
func (t *Ticket) Update(p UpdateParams) error {
	if p.Prioridad != nil && !p.Prioridad.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown prioridad %q", *p.Prioridad))
	}
	if p.Estado != nil {
		if err := t.ChangeEstado(*p.Estado); err != nil {
			return err
		}
	}
	if p.Prioridad != nil {
		t.Prioridad = *p.Prioridad
	}
	if p.Indicaciones != nil {
		t.Indicaciones = *p.Indicaciones
	}
	t.Touch()
	t.AddDomainEvent(NewTicketActualizadoEvent(t))
	return nil
}

// AssignRepartidor sets the courier of an open ticket
func (t *Ticket) AssignRepartidor(name string, pool *CourierPool) error {
	if !pool.Contains(name) {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown repartidor %q", name))
	}
	if t.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState, "cannot reassign a closed ticket")
	}
	t.Repartidor = name
	t.Touch()
	t.AddDomainEvent(NewTicketAsignadoEvent(t))
	return nil
}

// Archive snapshots a closed ticket into a registro entry
func (t *Ticket) Archive() (*Registro, error) {
	if !t.IsTerminal() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("ticket %s is %s; only closed tickets can be archived", t.Numero, t.Estado))
	}
	reg := NewRegistro(t)
	t.AddDomainEvent(NewTicketArchivadoEvent(t))
	return reg, nil
}
