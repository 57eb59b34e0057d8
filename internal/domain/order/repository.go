package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Repository persists orders
type Repository interface {
	// Save inserts a new order with its items
	Save(ctx context.Context, p *Pedido) error
	FindByID(ctx context.Context, id uint) (*Pedido, error)
	FindByNumero(ctx context.Context, numero string) (*Pedido, error)
	// List returns the most recent orders, newest first
	List(ctx context.Context, limit int) ([]*Pedido, error)
	ListByUsuario(ctx context.Context, usuarioID uint) ([]*Pedido, error)
	UpdateEstado(ctx context.Context, p *Pedido) error
	Count(ctx context.Context) (int64, error)
	CountByEstado(ctx context.Context) (map[Estado]int64, error)
	// TotalVentas sums the totals of completed orders
	TotalVentas(ctx context.Context) (decimal.Decimal, error)
}

// TicketSync is the storefront's copy of a ticket's state
type TicketSync struct {
	NumeroPedido       string          `json:"numero_pedido"`
	TicketID           uint            `json:"ticket_id"`
	Estado             string          `json:"estado"`
	Repartidor         string          `json:"repartidor"`
	FechaCreacion      string          `json:"fecha_creacion"`
	FechaActualizacion string          `json:"fecha_actualizacion"`
	DatosCompletos     json.RawMessage `json:"datos_completos"`
	SyncedAt           time.Time       `json:"synced_at"`
}

// TicketSyncRepository stores ticket snapshots pushed by the ticketing service
type TicketSyncRepository interface {
	// Upsert inserts or replaces snapshots keyed by NumeroPedido
	Upsert(ctx context.Context, items []TicketSync) error
	List(ctx context.Context) ([]TicketSync, error)
}
