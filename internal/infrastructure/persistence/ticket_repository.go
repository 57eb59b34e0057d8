package persistence

import (
	"context"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var openEstados = []string{
	string(ticket.EstadoPendiente),
	string(ticket.EstadoEnPreparacion),
	string(ticket.EstadoEnCamino),
}

// GormTicketRepository implements ticket.Repository using GORM
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// Save inserts a new ticket or updates an existing one. A second insert
// with the same numero fails with shared.ErrAlreadyExists.
func (r *GormTicketRepository) Save(ctx context.Context, t *ticket.Ticket) error {
	m := models.TicketModelFromDomain(t)
	db := r.db.WithContext(ctx)
	var err error
	if m.ID == 0 {
		err = db.Create(m).Error
	} else {
		err = db.Save(m).Error
	}
	if err != nil {
		return translate(err)
	}
	t.ID = m.ID
	t.CreatedAt = m.CreatedAt
	t.UpdatedAt = m.UpdatedAt
	return nil
}

// FindByID finds a ticket by ID
func (r *GormTicketRepository) FindByID(ctx context.Context, id uint) (*ticket.Ticket, error) {
	var m models.TicketModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// FindByNumero finds a ticket by the numero of its order
func (r *GormTicketRepository) FindByNumero(ctx context.Context, numero string) (*ticket.Ticket, error) {
	var m models.TicketModel
	if err := r.db.WithContext(ctx).Where("numero = ?", numero).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// List returns tickets newest first
func (r *GormTicketRepository) List(ctx context.Context, f ticket.ListFilter) ([]*ticket.Ticket, error) {
	q := r.db.WithContext(ctx).Order("fecha_creacion DESC, id DESC")
	if f.Repartidor != "" {
		q = q.Where("repartidor = ?", f.Repartidor)
	}
	if f.Estado != "" {
		q = q.Where("estado = ?", string(f.Estado))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var rows []models.TicketModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*ticket.Ticket, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Delete removes a ticket
func (r *GormTicketRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.TicketModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count returns the number of active tickets
func (r *GormTicketRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.TicketModel{}).Count(&n).Error
	return n, err
}

// CountOpenAltaByRepartidor counts open alta tickets per courier.
// Couriers without any are absent from the map.
func (r *GormTicketRepository) CountOpenAltaByRepartidor(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Repartidor string
		Count      int64
	}
	if err := r.db.WithContext(ctx).Model(&models.TicketModel{}).
		Select("repartidor, count(*) as count").
		Where("prioridad = ? AND estado IN ? AND repartidor <> ''", string(ticket.PrioridadAlta), openEstados).
		Group("repartidor").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Repartidor] = row.Count
	}
	return counts, nil
}

// CountByEstado groups active tickets by estado
func (r *GormTicketRepository) CountByEstado(ctx context.Context) (map[ticket.Estado]int64, error) {
	var rows []struct {
		Estado string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.TicketModel{}).
		Select("estado, count(*) as count").
		Group("estado").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[ticket.Estado]int64, len(rows))
	for _, row := range rows {
		counts[ticket.Estado(row.Estado)] = row.Count
	}
	return counts, nil
}

// StatsByRepartidor aggregates the tickets of every courier that holds any
func (r *GormTicketRepository) StatsByRepartidor(ctx context.Context) (map[string]*ticket.CourierStats, error) {
	var rows []struct {
		Repartidor string
		Estado     string
		Count      int64
	}
	if err := r.db.WithContext(ctx).Model(&models.TicketModel{}).
		Select("repartidor, estado, count(*) as count").
		Where("repartidor <> ''").
		Group("repartidor, estado").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	stats := make(map[string]*ticket.CourierStats)
	for _, row := range rows {
		s, ok := stats[row.Repartidor]
		if !ok {
			s = &ticket.CourierStats{}
			stats[row.Repartidor] = s
		}
		s.Add(ticket.Estado(row.Estado), row.Count)
	}
	return stats, nil
}

// Ensure GormTicketRepository implements ticket.Repository
var _ ticket.Repository = (*GormTicketRepository)(nil)

// GormRegistroRepository implements ticket.RegistroRepository using GORM
type GormRegistroRepository struct {
	db *gorm.DB
}

// NewGormRegistroRepository creates a new GormRegistroRepository
func NewGormRegistroRepository(db *gorm.DB) *GormRegistroRepository {
	return &GormRegistroRepository{db: db}
}

// Archive stores the registro entry and deletes the active ticket atomically
func (r *GormRegistroRepository) Archive(ctx context.Context, reg *ticket.Registro) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := models.RegistroModelFromDomain(reg)
		if err := tx.Create(m).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&models.TicketModel{}, reg.TicketID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		reg.ID = m.ID
		return nil
	})
}

// FindByNumero finds the most recent registro entry of an order
func (r *GormRegistroRepository) FindByNumero(ctx context.Context, numero string) (*ticket.Registro, error) {
	var m models.RegistroModel
	if err := r.db.WithContext(ctx).
		Where("numero = ?", numero).
		Order("fecha_registro DESC").
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// List returns archived tickets, most recently archived first
func (r *GormRegistroRepository) List(ctx context.Context, f shared.Filter) ([]*ticket.Registro, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.RegistroModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dir := ValidateSortOrder(f.OrderDir)
	field := ValidateSortField(f.OrderBy, RegistroSortFields, "fecha_registro")
	q := r.db.WithContext(ctx).Order(field + " " + dir + ", id " + dir)
	if f.PageSize > 0 {
		q = q.Offset(f.Offset()).Limit(f.PageSize)
	}
	var rows []models.RegistroModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*ticket.Registro, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// Ensure GormRegistroRepository implements ticket.RegistroRepository
var _ ticket.RegistroRepository = (*GormRegistroRepository)(nil)
