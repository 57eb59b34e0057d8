package identity

import (
	"context"
	"strings"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
)

// PrincipalAdminUsername is the seeded admin account, which cannot be deleted
const PrincipalAdminUsername = "admin"

// MinPasswordLength is the minimum length for staff and customer passwords
const MinPasswordLength = 6

// StaffUser is a backoffice account. Flota users are linked to the courier
// label whose tickets they work.
type StaffUser struct {
	ID           uint
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Nombre       string
	Repartidor   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewStaffUser validates and builds a staff user; the password must already be hashed
func NewStaffUser(username, email, nombre string, role Role, passwordHash, repartidor string) (*StaffUser, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || strings.TrimSpace(nombre) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "username, email and nombre are required")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "role must be admin or flota")
	}
	if passwordHash == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "password is required")
	}
	now := time.Now()
	return &StaffUser{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Nombre:       strings.TrimSpace(nombre),
		Repartidor:   repartidor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Can reports whether the user's role grants the capability
func (u *StaffUser) Can(c Capability) bool {
	return u.Role.Can(c)
}

// IsPrincipalAdmin reports whether this is the undeletable seed admin
func (u *StaffUser) IsPrincipalAdmin() bool {
	return u.Username == PrincipalAdminUsername
}

// StaffUserRepository persists staff users
type StaffUserRepository interface {
	Save(ctx context.Context, u *StaffUser) error
	FindByID(ctx context.Context, id uint) (*StaffUser, error)
	FindByUsername(ctx context.Context, username string) (*StaffUser, error)
	FindByEmail(ctx context.Context, email string) (*StaffUser, error)
	List(ctx context.Context) ([]*StaffUser, error)
	Delete(ctx context.Context, id uint) error
}
