package models

import (
	"time"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/shopspring/decimal"
)

// TicketModel maps the tickets table. Productos are stored as a JSON document.
type TicketModel struct {
	ID               uint              `gorm:"primaryKey"`
	Numero           string            `gorm:"type:varchar(40);not null;uniqueIndex"`
	ClienteNombre    string            `gorm:"type:varchar(200);not null"`
	ClienteDireccion string            `gorm:"type:varchar(255)"`
	ClienteTelefono  string            `gorm:"type:varchar(30)"`
	ClienteEmail     string            `gorm:"type:varchar(150)"`
	Productos        []ticket.Producto `gorm:"type:text;serializer:json"`
	Total            decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	MetodoPago       string            `gorm:"type:varchar(30)"`
	Estado           string            `gorm:"type:varchar(20);not null;index:idx_tickets_estado_prioridad,priority:1"`
	EstadoEnvio      string            `gorm:"type:varchar(20);not null"`
	Prioridad        string            `gorm:"type:varchar(10);not null;index:idx_tickets_estado_prioridad,priority:2"`
	TipoCliente      string            `gorm:"type:varchar(20);not null"`
	Indicaciones     string            `gorm:"type:text"`
	Repartidor       string            `gorm:"type:varchar(50);index"`
	FechaEnvio       *time.Time
	FechaEntrega     *time.Time
	CreatedAt        time.Time `gorm:"column:fecha_creacion;index"`
	UpdatedAt        time.Time `gorm:"column:fecha_actualizacion"`
}

// TableName returns the table name for GORM
func (TicketModel) TableName() string { return "tickets" }

// ToDomain converts the model to a domain Ticket
func (m *TicketModel) ToDomain() *ticket.Ticket {
	return &ticket.Ticket{
		BaseAggregateRoot: shared.BaseAggregateRoot{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Numero:            m.Numero,
		ClienteNombre:     m.ClienteNombre,
		ClienteDireccion:  m.ClienteDireccion,
		ClienteTelefono:   m.ClienteTelefono,
		ClienteEmail:      m.ClienteEmail,
		Productos:         m.Productos,
		Total:             m.Total,
		MetodoPago:        m.MetodoPago,
		Estado:            ticket.Estado(m.Estado),
		EstadoEnvio:       ticket.EstadoEnvio(m.EstadoEnvio),
		Prioridad:         ticket.Prioridad(m.Prioridad),
		TipoCliente:       ticket.TipoCliente(m.TipoCliente),
		Indicaciones:      m.Indicaciones,
		Repartidor:        m.Repartidor,
		FechaEnvio:        m.FechaEnvio,
		FechaEntrega:      m.FechaEntrega,
	}
}

// TicketModelFromDomain creates a model from a domain Ticket
func TicketModelFromDomain(t *ticket.Ticket) *TicketModel {
	return &TicketModel{
		ID:               t.ID,
		Numero:           t.Numero,
		ClienteNombre:    t.ClienteNombre,
		ClienteDireccion: t.ClienteDireccion,
		ClienteTelefono:  t.ClienteTelefono,
		ClienteEmail:     t.ClienteEmail,
		Productos:        t.Productos,
		Total:            t.Total,
		MetodoPago:       t.MetodoPago,
		Estado:           string(t.Estado),
		EstadoEnvio:      string(t.EstadoEnvio),
		Prioridad:        string(t.Prioridad),
		TipoCliente:      string(t.TipoCliente),
		Indicaciones:     t.Indicaciones,
		Repartidor:       t.Repartidor,
		FechaEnvio:       t.FechaEnvio,
		FechaEntrega:     t.FechaEntrega,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// RegistroModel maps the registro_tickets archive table
type RegistroModel struct {
	ID               uint              `gorm:"primaryKey"`
	TicketID         uint              `gorm:"not null"`
	Numero           string            `gorm:"type:varchar(40);not null;index"`
	ClienteNombre    string            `gorm:"type:varchar(200);not null"`
	ClienteDireccion string            `gorm:"type:varchar(255)"`
	ClienteTelefono  string            `gorm:"type:varchar(30)"`
	ClienteEmail     string            `gorm:"type:varchar(150)"`
	Productos        []ticket.Producto `gorm:"type:text;serializer:json"`
	Total            decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	EstadoFinal      string            `gorm:"type:varchar(20);not null"`
	EstadoEnvioFinal string            `gorm:"type:varchar(20);not null"`
	Prioridad        string            `gorm:"type:varchar(10)"`
	Indicaciones     string            `gorm:"type:text"`
	Repartidor       string            `gorm:"type:varchar(50)"`
	FechaCreacion    time.Time
	FechaEnvio       *time.Time
	FechaEntrega     *time.Time
	FechaRegistro    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (RegistroModel) TableName() string { return "registro_tickets" }

// ToDomain converts the model to a domain Registro
func (m *RegistroModel) ToDomain() *ticket.Registro {
	return &ticket.Registro{
		ID:               m.ID,
		TicketID:         m.TicketID,
		Numero:           m.Numero,
		ClienteNombre:    m.ClienteNombre,
		ClienteDireccion: m.ClienteDireccion,
		ClienteTelefono:  m.ClienteTelefono,
		ClienteEmail:     m.ClienteEmail,
		Productos:        m.Productos,
		Total:            m.Total,
		EstadoFinal:      ticket.Estado(m.EstadoFinal),
		EstadoEnvioFinal: ticket.EstadoEnvio(m.EstadoEnvioFinal),
		Prioridad:        ticket.Prioridad(m.Prioridad),
		Indicaciones:     m.Indicaciones,
		Repartidor:       m.Repartidor,
		FechaCreacion:    m.FechaCreacion,
		FechaEnvio:       m.FechaEnvio,
		FechaEntrega:     m.FechaEntrega,
		FechaRegistro:    m.FechaRegistro,
	}
}

// RegistroModelFromDomain creates a model from a domain Registro
func RegistroModelFromDomain(r *ticket.Registro) *RegistroModel {
	return &RegistroModel{
		ID:               r.ID,
		TicketID:         r.TicketID,
		Numero:           r.Numero,
		ClienteNombre:    r.ClienteNombre,
		ClienteDireccion: r.ClienteDireccion,
		ClienteTelefono:  r.ClienteTelefono,
		ClienteEmail:     r.ClienteEmail,
		Productos:        r.Productos,
		Total:            r.Total,
		EstadoFinal:      string(r.EstadoFinal),
		EstadoEnvioFinal: string(r.EstadoEnvioFinal),
		Prioridad:        string(r.Prioridad),
		Indicaciones:     r.Indicaciones,
		Repartidor:       r.Repartidor,
		FechaCreacion:    r.FechaCreacion,
		FechaEnvio:       r.FechaEnvio,
		FechaEntrega:     r.FechaEntrega,
		FechaRegistro:    r.FechaRegistro,
	}
}

// StaffUserModel maps the staff_users table
type StaffUserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"type:varchar(80);not null;uniqueIndex"`
	Email        string `gorm:"type:varchar(150);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	Nombre       string `gorm:"type:varchar(100);not null"`
	Repartidor   string `gorm:"type:varchar(50)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (StaffUserModel) TableName() string { return "staff_users" }

// ToDomain converts the model to a domain StaffUser
func (m *StaffUserModel) ToDomain() *identity.StaffUser {
	return &identity.StaffUser{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         identity.Role(m.Role),
		Nombre:       m.Nombre,
		Repartidor:   m.Repartidor,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// StaffUserModelFromDomain creates a model from a domain StaffUser
func StaffUserModelFromDomain(u *identity.StaffUser) *StaffUserModel {
	return &StaffUserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Nombre:       u.Nombre,
		Repartidor:   u.Repartidor,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
