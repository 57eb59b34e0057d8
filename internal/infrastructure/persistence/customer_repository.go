package persistence

import (
	"context"
	"strings"

	"github.com/belgrano/backend/internal/domain/customer"
	"github.com/belgrano/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements customer.Repository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// Save inserts or updates a customer account
func (r *GormCustomerRepository) Save(ctx context.Context, u *customer.Usuario) error {
	m := models.UsuarioModelFromDomain(u)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return translate(err)
	}
	u.ID = m.ID
	return nil
}

// FindByID finds a customer by ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uint) (*customer.Usuario, error) {
	var m models.UsuarioModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// FindByEmail finds a customer by email, case-insensitively
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Usuario, error) {
	var m models.UsuarioModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// SaveComerciante inserts or updates a merchant profile
func (r *GormCustomerRepository) SaveComerciante(ctx context.Context, c *customer.Comerciante) error {
	m := models.ComercianteModelFromDomain(c)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return translate(err)
	}
	c.ID = m.ID
	return nil
}

// FindComerciante finds the merchant profile of a customer
func (r *GormCustomerRepository) FindComerciante(ctx context.Context, usuarioID uint) (*customer.Comerciante, error) {
	var m models.ComercianteModel
	if err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// CountActive counts active customer accounts
func (r *GormCustomerRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UsuarioModel{}).
		Where("activo = ?", true).
		Count(&n).Error
	return n, err
}

// Ensure GormCustomerRepository implements customer.Repository
var _ customer.Repository = (*GormCustomerRepository)(nil)
