package models

import (
	"encoding/json"
	"time"

	"github.com/belgrano/backend/internal/domain/customer"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UsuarioModel maps the usuarios table
type UsuarioModel struct {
	ID           uint   `gorm:"primaryKey"`
	Nombre       string `gorm:"type:varchar(100);not null"`
	Apellido     string `gorm:"type:varchar(100)"`
	Email        string `gorm:"type:varchar(150);not null;uniqueIndex"`
	Telefono     string `gorm:"type:varchar(30)"`
	Direccion    string `gorm:"type:varchar(255)"`
	PasswordHash string `gorm:"column:password;type:varchar(255);not null"`
	Rol          string `gorm:"type:varchar(20);not null;default:cliente"`
	Activo       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (UsuarioModel) TableName() string { return "usuarios" }

// ToDomain converts the model to a domain Usuario
func (m *UsuarioModel) ToDomain() *customer.Usuario {
	return &customer.Usuario{
		ID:           m.ID,
		Nombre:       m.Nombre,
		Apellido:     m.Apellido,
		Email:        m.Email,
		Telefono:     m.Telefono,
		Direccion:    m.Direccion,
		PasswordHash: m.PasswordHash,
		Rol:          customer.Rol(m.Rol),
		Activo:       m.Activo,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// UsuarioModelFromDomain creates a model from a domain Usuario
func UsuarioModelFromDomain(u *customer.Usuario) *UsuarioModel {
	return &UsuarioModel{
		ID:           u.ID,
		Nombre:       u.Nombre,
		Apellido:     u.Apellido,
		Email:        u.Email,
		Telefono:     u.Telefono,
		Direccion:    u.Direccion,
		PasswordHash: u.PasswordHash,
		Rol:          string(u.Rol),
		Activo:       u.Activo,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ComercianteModel maps the comerciantes table
type ComercianteModel struct {
	ID                 uint   `gorm:"primaryKey"`
	UsuarioID          uint   `gorm:"not null;uniqueIndex"`
	NombreNegocio      string `gorm:"type:varchar(150);not null"`
	CUIT               string `gorm:"column:cuit;type:varchar(20)"`
	DireccionComercial string `gorm:"type:varchar(255)"`
	TelefonoComercial  string `gorm:"type:varchar(30)"`
	TipoNegocio        string `gorm:"type:varchar(50)"`
	Activo             bool   `gorm:"not null;default:true"`
	CreatedAt          time.Time
}

// TableName returns the table name for GORM
func (ComercianteModel) TableName() string { return "comerciantes" }

// ToDomain converts the model to a domain Comerciante
func (m *ComercianteModel) ToDomain() *customer.Comerciante {
	return &customer.Comerciante{
		ID:                 m.ID,
		UsuarioID:          m.UsuarioID,
		NombreNegocio:      m.NombreNegocio,
		CUIT:               m.CUIT,
		DireccionComercial: m.DireccionComercial,
		TelefonoComercial:  m.TelefonoComercial,
		TipoNegocio:        m.TipoNegocio,
		Activo:             m.Activo,
		CreatedAt:          m.CreatedAt,
	}
}

// ComercianteModelFromDomain creates a model from a domain Comerciante
func ComercianteModelFromDomain(c *customer.Comerciante) *ComercianteModel {
	return &ComercianteModel{
		ID:                 c.ID,
		UsuarioID:          c.UsuarioID,
		NombreNegocio:      c.NombreNegocio,
		CUIT:               c.CUIT,
		DireccionComercial: c.DireccionComercial,
		TelefonoComercial:  c.TelefonoComercial,
		TipoNegocio:        c.TipoNegocio,
		Activo:             c.Activo,
		CreatedAt:          c.CreatedAt,
	}
}

// PedidoModel maps the pedidos table
type PedidoModel struct {
	ID               uint              `gorm:"primaryKey"`
	Numero           string            `gorm:"column:numero_pedido;type:varchar(40);not null;uniqueIndex"`
	UsuarioID        uint              `gorm:"not null;index"`
	Total            decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	MetodoPago       string            `gorm:"type:varchar(30);not null"`
	DireccionEntrega string            `gorm:"type:varchar(255);not null"`
	Notas            string            `gorm:"type:text"`
	Estado           string            `gorm:"type:varchar(20);not null;index"`
	Items            []PedidoItemModel `gorm:"foreignKey:PedidoID"`
	CreatedAt        time.Time         `gorm:"column:fecha_pedido;index"`
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (PedidoModel) TableName() string { return "pedidos" }

// PedidoItemModel maps the pedido_items table
type PedidoItemModel struct {
	ID             uint            `gorm:"primaryKey"`
	PedidoID       uint            `gorm:"not null;index"`
	ProductoID     string          `gorm:"type:varchar(50);not null"`
	Nombre         string          `gorm:"column:nombre_producto;type:varchar(150);not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (PedidoItemModel) TableName() string { return "pedido_items" }

// ToDomain converts the model to a domain Pedido
func (m *PedidoModel) ToDomain() *order.Pedido {
	items := make([]order.Item, len(m.Items))
	for i, it := range m.Items {
		items[i] = order.Item{
			ID:             it.ID,
			ProductoID:     it.ProductoID,
			Nombre:         it.Nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		}
	}
	return &order.Pedido{
		BaseAggregateRoot: shared.BaseAggregateRoot{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Numero:            m.Numero,
		UsuarioID:         m.UsuarioID,
		Items:             items,
		Total:             m.Total,
		MetodoPago:        m.MetodoPago,
		DireccionEntrega:  m.DireccionEntrega,
		Notas:             m.Notas,
		Estado:            order.Estado(m.Estado),
	}
}

// PedidoModelFromDomain creates a model, items included, from a domain Pedido
func PedidoModelFromDomain(p *order.Pedido) *PedidoModel {
	items := make([]PedidoItemModel, len(p.Items))
	for i, it := range p.Items {
		items[i] = PedidoItemModel{
			ID:             it.ID,
			PedidoID:       p.ID,
			ProductoID:     it.ProductoID,
			Nombre:         it.Nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		}
	}
	return &PedidoModel{
		ID:               p.ID,
		Numero:           p.Numero,
		UsuarioID:        p.UsuarioID,
		Total:            p.Total,
		MetodoPago:       p.MetodoPago,
		DireccionEntrega: p.DireccionEntrega,
		Notas:            p.Notas,
		Estado:           string(p.Estado),
		Items:            items,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// TicketSyncModel maps the tickets_sync table
type TicketSyncModel struct {
	ID                 uint   `gorm:"primaryKey"`
	NumeroPedido       string `gorm:"type:varchar(40);not null;uniqueIndex"`
	TicketID           uint
	Estado             string `gorm:"type:varchar(20)"`
	Repartidor         string `gorm:"type:varchar(50)"`
	FechaCreacion      string `gorm:"type:varchar(40)"`
	FechaActualizacion string `gorm:"type:varchar(40)"`
	DatosCompletos     string `gorm:"type:text"`
	SyncedAt           time.Time
}

// TableName returns the table name for GORM
func (TicketSyncModel) TableName() string { return "tickets_sync" }

// ToDomain converts the model to a domain TicketSync
func (m *TicketSyncModel) ToDomain() order.TicketSync {
	var raw json.RawMessage
	if m.DatosCompletos != "" {
		raw = json.RawMessage(m.DatosCompletos)
	}
	return order.TicketSync{
		NumeroPedido:       m.NumeroPedido,
		TicketID:           m.TicketID,
		Estado:             m.Estado,
		Repartidor:         m.Repartidor,
		FechaCreacion:      m.FechaCreacion,
		FechaActualizacion: m.FechaActualizacion,
		DatosCompletos:     raw,
		SyncedAt:           m.SyncedAt,
	}
}

// TicketSyncModelFromDomain creates a model from a domain TicketSync
func TicketSyncModelFromDomain(s order.TicketSync) *TicketSyncModel {
	return &TicketSyncModel{
		NumeroPedido:       s.NumeroPedido,
		TicketID:           s.TicketID,
		Estado:             s.Estado,
		Repartidor:         s.Repartidor,
		FechaCreacion:      s.FechaCreacion,
		FechaActualizacion: s.FechaActualizacion,
		DatosCompletos:     string(s.DatosCompletos),
		SyncedAt:           s.SyncedAt,
	}
}
