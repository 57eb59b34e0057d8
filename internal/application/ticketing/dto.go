package ticketing

import (
	"time"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/shopspring/decimal"
)

// Actor is the staff member behind a dashboard request
type Actor struct {
	UserID     uint
	Username   string
	Role       identity.Role
	Repartidor string
}

// Can reports whether the actor's role grants c
func (a Actor) Can(c identity.Capability) bool {
	return a.Role.Can(c)
}

// sees reports whether the actor may look at t. Flota users only see the
// tickets of their own courier label.
func (a Actor) sees(t *ticket.Ticket) bool {
	if a.Can(identity.CapViewAllTickets) {
		return true
	}
	return a.Can(identity.CapViewOwnTickets) && a.Repartidor != "" && t.Repartidor == a.Repartidor
}

// ReceiveInput is an order pushed by the storefront. Total is nil when the
// sender omitted it.
type ReceiveInput struct {
	Numero           string
	ClienteNombre    string
	ClienteDireccion string
	ClienteTelefono  string
	ClienteEmail     string
	Productos        []ticket.Producto
	Total            *decimal.Decimal
	MetodoPago       string
	Indicaciones     string
	Estado           string
	Prioridad        string
	TipoCliente      string
}

// ReceiveResult reports the ticket behind a receipt. Created is false when
// the numero was already known.
type ReceiveResult struct {
	Ticket  *TicketDTO
	Created bool
}

// UpdateTicketInput carries a dashboard edit; nil fields are left alone
type UpdateTicketInput struct {
	Estado       *string `json:"estado" binding:"omitempty,ticket_estado"`
	Prioridad    *string `json:"prioridad" binding:"omitempty,prioridad"`
	Indicaciones *string `json:"indicaciones" binding:"omitempty,max=1000"`
}

// TicketDTO is a ticket as the dashboard shows it
type TicketDTO struct {
	ID                 uint              `json:"id"`
	Numero             string            `json:"numero"`
	ClienteNombre      string            `json:"cliente_nombre"`
	ClienteDireccion   string            `json:"cliente_direccion"`
	ClienteTelefono    string            `json:"cliente_telefono"`
	ClienteEmail       string            `json:"cliente_email"`
	Productos          []ticket.Producto `json:"productos"`
	Total              decimal.Decimal   `json:"total"`
	MetodoPago         string            `json:"metodo_pago"`
	Estado             string            `json:"estado"`
	EstadoEnvio        string            `json:"estado_envio"`
	Prioridad          string            `json:"prioridad"`
	TipoCliente        string            `json:"tipo_cliente"`
	Indicaciones       string            `json:"indicaciones"`
	Repartidor         string            `json:"repartidor"`
	FechaCreacion      time.Time         `json:"fecha_creacion"`
	FechaActualizacion time.Time         `json:"fecha_actualizacion"`
	FechaEnvio         *time.Time        `json:"fecha_envio,omitempty"`
	FechaEntrega       *time.Time        `json:"fecha_entrega,omitempty"`
}

// ArchivedTicketDTO presents a registro entry in ticket form, for callers
// that ask about an order whose ticket has already been archived
func ArchivedTicketDTO(r *ticket.Registro) *TicketDTO {
	return &TicketDTO{
		ID:                 r.TicketID,
		Numero:             r.Numero,
		ClienteNombre:      r.ClienteNombre,
		ClienteDireccion:   r.ClienteDireccion,
		ClienteTelefono:    r.ClienteTelefono,
		ClienteEmail:       r.ClienteEmail,
		Productos:          r.Productos,
		Total:              r.Total,
		Estado:             string(r.EstadoFinal),
		EstadoEnvio:        string(r.EstadoEnvioFinal),
		Prioridad:          string(r.Prioridad),
		Indicaciones:       r.Indicaciones,
		Repartidor:         r.Repartidor,
		FechaCreacion:      r.FechaCreacion,
		FechaActualizacion: r.FechaRegistro,
		FechaEnvio:         r.FechaEnvio,
		FechaEntrega:       r.FechaEntrega,
	}
}

// ToTicketDTO converts a ticket for the dashboard
func ToTicketDTO(t *ticket.Ticket) *TicketDTO {
	return &TicketDTO{
		ID:                 t.ID,
		Numero:             t.Numero,
		ClienteNombre:      t.ClienteNombre,
		ClienteDireccion:   t.ClienteDireccion,
		ClienteTelefono:    t.ClienteTelefono,
		ClienteEmail:       t.ClienteEmail,
		Productos:          t.Productos,
		Total:              t.Total,
		MetodoPago:         t.MetodoPago,
		Estado:             string(t.Estado),
		EstadoEnvio:        string(t.EstadoEnvio),
		Prioridad:          string(t.Prioridad),
		TipoCliente:        string(t.TipoCliente),
		Indicaciones:       t.Indicaciones,
		Repartidor:         t.Repartidor,
		FechaCreacion:      t.CreatedAt,
		FechaActualizacion: t.UpdatedAt,
		FechaEnvio:         t.FechaEnvio,
		FechaEntrega:       t.FechaEntrega,
	}
}

// RegistroDTO is an archived ticket
type RegistroDTO struct {
	ID               uint              `json:"id"`
	TicketID         uint              `json:"ticket_id"`
	Numero           string            `json:"numero"`
	ClienteNombre    string            `json:"cliente_nombre"`
	ClienteDireccion string            `json:"cliente_direccion"`
	Productos        []ticket.Producto `json:"productos"`
	Total            decimal.Decimal   `json:"total"`
	EstadoFinal      string            `json:"estado_final"`
	EstadoEnvioFinal string            `json:"estado_envio_final"`
	Prioridad        string            `json:"prioridad"`
	Repartidor       string            `json:"repartidor"`
	FechaCreacion    time.Time         `json:"fecha_creacion"`
	FechaEntrega     *time.Time        `json:"fecha_entrega,omitempty"`
	FechaRegistro    time.Time         `json:"fecha_registro"`
}

func toRegistroDTO(r *ticket.Registro) RegistroDTO {
	return RegistroDTO{
		ID:               r.ID,
		TicketID:         r.TicketID,
		Numero:           r.Numero,
		ClienteNombre:    r.ClienteNombre,
		ClienteDireccion: r.ClienteDireccion,
		Productos:        r.Productos,
		Total:            r.Total,
		EstadoFinal:      string(r.EstadoFinal),
		EstadoEnvioFinal: string(r.EstadoEnvioFinal),
		Prioridad:        string(r.Prioridad),
		Repartidor:       r.Repartidor,
		FechaCreacion:    r.FechaCreacion,
		FechaEntrega:     r.FechaEntrega,
		FechaRegistro:    r.FechaRegistro,
	}
}

// CourierStatsDTO summarizes the workload of one courier
type CourierStatsDTO struct {
	Repartidor    string `json:"repartidor"`
	Total         int64  `json:"total"`
	Pendientes    int64  `json:"pendientes"`
	EnPreparacion int64  `json:"en_preparacion"`
	EnCamino      int64  `json:"en_camino"`
	Entregados    int64  `json:"entregados"`
	Cancelados    int64  `json:"cancelados"`
	AltaAbiertos  int64  `json:"alta_abiertos"`
}

// ReportDTO summarizes all active tickets
type ReportDTO struct {
	Total         int64            `json:"total"`
	PorEstado     map[string]int64 `json:"por_estado"`
	PorRepartidor map[string]int64 `json:"por_repartidor"`
	SinAsignar    int64            `json:"sin_asignar"`
	Archivados    int64            `json:"archivados"`
}

// StaffUserDTO is a staff account without its password hash
type StaffUserDTO struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Nombre     string    `json:"nombre"`
	Role       string    `json:"role"`
	Repartidor string    `json:"repartidor,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toStaffUserDTO(u *identity.StaffUser) *StaffUserDTO {
	return &StaffUserDTO{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Nombre:     u.Nombre,
		Role:       string(u.Role),
		Repartidor: u.Repartidor,
		CreatedAt:  u.CreatedAt,
	}
}

// StaffLoginResult is a signed dashboard session
type StaffLoginResult struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Usuario     *StaffUserDTO `json:"usuario"`
}

// CreateStaffInput creates a backoffice account
type CreateStaffInput struct {
	Username   string `json:"username" binding:"required,max=80"`
	Email      string `json:"email" binding:"required,email"`
	Nombre     string `json:"nombre" binding:"required,max=100"`
	Password   string `json:"password" binding:"required,min=6"`
	Role       string `json:"role" binding:"required,staff_role"`
	Repartidor string `json:"repartidor" binding:"max=50"`
}

// UpdateStaffInput edits a backoffice account; empty fields are left alone
type UpdateStaffInput struct {
	Email      string  `json:"email" binding:"omitempty,email"`
	Nombre     string  `json:"nombre" binding:"max=100"`
	Role       string  `json:"role" binding:"omitempty,staff_role"`
	Repartidor *string `json:"repartidor" binding:"omitempty,max=50"`
}

// RegistroQuery pages and orders the archive listing
type RegistroQuery struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// SeedInput holds the passwords of the accounts created on first boot
type SeedInput struct {
	AdminPassword string
	FlotaPassword string
}
