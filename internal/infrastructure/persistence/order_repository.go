package persistence

import (
	"context"

	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save inserts the order and its items. The order ID and item IDs are
// written back to the aggregate.
func (r *GormOrderRepository) Save(ctx context.Context, p *order.Pedido) error {
	m := models.PedidoModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err)
	}
	p.ID = m.ID
	for i := range p.Items {
		p.Items[i].ID = m.Items[i].ID
	}
	return nil
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*order.Pedido, error) {
	var m models.PedidoModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// FindByNumero finds an order by its public number
func (r *GormOrderRepository) FindByNumero(ctx context.Context, numero string) (*order.Pedido, error) {
	var m models.PedidoModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("numero_pedido = ?", numero).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// List returns the most recent orders
func (r *GormOrderRepository) List(ctx context.Context, limit int) ([]*order.Pedido, error) {
	q := r.db.WithContext(ctx).Preload("Items").Order("fecha_pedido DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(q)
}

// ListByUsuario returns a customer's orders, newest first
func (r *GormOrderRepository) ListByUsuario(ctx context.Context, usuarioID uint) ([]*order.Pedido, error) {
	return r.find(r.db.WithContext(ctx).Preload("Items").
		Where("usuario_id = ?", usuarioID).
		Order("fecha_pedido DESC, id DESC"))
}

func (r *GormOrderRepository) find(q *gorm.DB) ([]*order.Pedido, error) {
	var rows []models.PedidoModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*order.Pedido, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// UpdateEstado persists the estado of an existing order
func (r *GormOrderRepository) UpdateEstado(ctx context.Context, p *order.Pedido) error {
	res := r.db.WithContext(ctx).Model(&models.PedidoModel{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{"estado": string(p.Estado), "updated_at": p.UpdatedAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound)
	}
	return nil
}

// Count returns the number of orders
func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PedidoModel{}).Count(&n).Error
	return n, err
}

// CountByEstado groups the orders by estado
func (r *GormOrderRepository) CountByEstado(ctx context.Context) (map[order.Estado]int64, error) {
	var rows []struct {
		Estado string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.PedidoModel{}).
		Select("estado, count(*) as count").
		Group("estado").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[order.Estado]int64, len(rows))
	for _, row := range rows {
		counts[order.Estado(row.Estado)] = row.Count
	}
	return counts, nil
}

// TotalVentas sums the totals of completed orders
func (r *GormOrderRepository) TotalVentas(ctx context.Context) (decimal.Decimal, error) {
	var totals []decimal.Decimal
	if err := r.db.WithContext(ctx).Model(&models.PedidoModel{}).
		Where("estado = ?", string(order.EstadoCompletado)).
		Pluck("total", &totals).Error; err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, totals...), nil
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)

// GormTicketSyncRepository implements order.TicketSyncRepository using GORM
type GormTicketSyncRepository struct {
	db *gorm.DB
}

// NewGormTicketSyncRepository creates a new GormTicketSyncRepository
func NewGormTicketSyncRepository(db *gorm.DB) *GormTicketSyncRepository {
	return &GormTicketSyncRepository{db: db}
}

// Upsert inserts or replaces snapshots keyed by numero_pedido
func (r *GormTicketSyncRepository) Upsert(ctx context.Context, items []order.TicketSync) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*models.TicketSyncModel, len(items))
	for i, it := range items {
		rows[i] = models.TicketSyncModelFromDomain(it)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "numero_pedido"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"ticket_id", "estado", "repartidor", "fecha_creacion",
			"fecha_actualizacion", "datos_completos", "synced_at",
		}),
	}).Create(rows).Error
}

// List returns all snapshots, most recently synced first
func (r *GormTicketSyncRepository) List(ctx context.Context) ([]order.TicketSync, error) {
	var rows []models.TicketSyncModel
	if err := r.db.WithContext(ctx).Order("synced_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]order.TicketSync, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Ensure GormTicketSyncRepository implements order.TicketSyncRepository
var _ order.TicketSyncRepository = (*GormTicketSyncRepository)(nil)
