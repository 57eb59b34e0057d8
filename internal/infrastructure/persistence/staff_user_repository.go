package persistence

import (
	"context"
	"strings"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStaffUserRepository implements identity.StaffUserRepository using GORM
type GormStaffUserRepository struct {
	db *gorm.DB
}

// NewGormStaffUserRepository creates a new GormStaffUserRepository
func NewGormStaffUserRepository(db *gorm.DB) *GormStaffUserRepository {
	return &GormStaffUserRepository{db: db}
}

// Save inserts or updates a staff user
func (r *GormStaffUserRepository) Save(ctx context.Context, u *identity.StaffUser) error {
	m := models.StaffUserModelFromDomain(u)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return translate(err)
	}
	u.ID = m.ID
	return nil
}

// FindByID finds a staff user by ID
func (r *GormStaffUserRepository) FindByID(ctx context.Context, id uint) (*identity.StaffUser, error) {
	var m models.StaffUserModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// FindByUsername finds a staff user by username
func (r *GormStaffUserRepository) FindByUsername(ctx context.Context, username string) (*identity.StaffUser, error) {
	return r.findOne(ctx, "username = ?", strings.TrimSpace(username))
}

// FindByEmail finds a staff user by email
func (r *GormStaffUserRepository) FindByEmail(ctx context.Context, email string) (*identity.StaffUser, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormStaffUserRepository) findOne(ctx context.Context, where string, arg any) (*identity.StaffUser, error) {
	var m models.StaffUserModel
	if err := r.db.WithContext(ctx).Where(where, arg).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// List returns all staff users ordered by username
func (r *GormStaffUserRepository) List(ctx context.Context) ([]*identity.StaffUser, error) {
	var rows []models.StaffUserModel
	if err := r.db.WithContext(ctx).Order("username ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*identity.StaffUser, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Delete removes a staff user
func (r *GormStaffUserRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.StaffUserModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormStaffUserRepository implements identity.StaffUserRepository
var _ identity.StaffUserRepository = (*GormStaffUserRepository)(nil)
