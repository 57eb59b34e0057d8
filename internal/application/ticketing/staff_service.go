package ticketing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// StaffService handles backoffice accounts and dashboard sessions
type StaffService struct {
	users     identity.StaffUserRepository
	tickets   ticket.Repository
	pool      *ticket.CourierPool
	hasher    *auth.PasswordHasher
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewStaffService creates a new staff service
func NewStaffService(
	users identity.StaffUserRepository,
	tickets ticket.Repository,
	pool *ticket.CourierPool,
	hasher *auth.PasswordHasher,
	jwt *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *StaffService {
	return &StaffService{
		users:     users,
		tickets:   tickets,
		pool:      pool,
		hasher:    hasher,
		jwt:       jwt,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Login accepts either the username or the email of the account
func (s *StaffService) Login(ctx context.Context, login, password string) (*StaffLoginResult, error) {
	u, err := s.lookup(ctx, strings.TrimSpace(login))
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Failed to look up staff user", zap.Error(err))
		}
		return nil, staffInvalidCredentials()
	}
	if err := s.hasher.Verify(u.PasswordHash, password); err != nil {
		s.logger.Warn("Invalid password attempt", zap.String("username", u.Username))
		return nil, staffInvalidCredentials()
	}

	tok, err := s.jwt.GenerateToken(auth.TokenInput{
		UserID:     u.ID,
		Username:   u.Username,
		Kind:       auth.SubjectStaff,
		Role:       string(u.Role),
		Repartidor: u.Repartidor,
	})
	if err != nil {
		s.logger.Error("Failed to sign staff token", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to generate authentication token")
	}

	s.logger.Info("Staff user logged in", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	return &StaffLoginResult{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresAt:   tok.ExpiresAt,
		Usuario:     toStaffUserDTO(u),
	}, nil
}

func (s *StaffService) lookup(ctx context.Context, login string) (*identity.StaffUser, error) {
	if strings.Contains(login, "@") {
		return s.users.FindByEmail(ctx, strings.ToLower(login))
	}
	return s.users.FindByUsername(ctx, login)
}

// Logout revokes the presented token
func (s *StaffService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke token", zap.Error(err))
		return shared.NewDomainError(shared.CodeInternal, "Failed to log out")
	}
	return nil
}

// Me returns the account behind the session
func (s *StaffService) Me(ctx context.Context, actor Actor) (*StaffUserDTO, error) {
	u, err := s.find(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return toStaffUserDTO(u), nil
}

// List returns every staff account
func (s *StaffService) List(ctx context.Context, actor Actor) ([]*StaffUserDTO, error) {
	if !actor.Can(identity.CapManageUsers) {
		return nil, forbidden()
	}
	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list staff users", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to list users")
	}
	out := make([]*StaffUserDTO, len(users))
	for i, u := range users {
		out[i] = toStaffUserDTO(u)
	}
	return out, nil
}

// Create adds a backoffice account
func (s *StaffService) Create(ctx context.Context, actor Actor, in CreateStaffInput) (*StaffUserDTO, error) {
	if !actor.Can(identity.CapManageUsers) {
		return nil, forbidden()
	}
	u, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Staff user created",
		zap.String("username", u.Username),
		zap.String("role", string(u.Role)),
		zap.String("by", actor.Username))
	return toStaffUserDTO(u), nil
}

func (s *StaffService) create(ctx context.Context, in CreateStaffInput) (*identity.StaffUser, error) {
	role, err := identity.ParseRole(in.Role)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, err.Error())
	}
	repartidor, err := s.repartidorFor(role, in.Repartidor)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in.Username, in.Email, 0); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, passwordError(err)
	}
	u, err := identity.NewStaffUser(in.Username, in.Email, in.Nombre, role, hash, repartidor)
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, u); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "El usuario o email ya existe")
		}
		s.logger.Error("Failed to save staff user", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to create user")
	}
	return u, nil
}

// Update edits an account. Changing the role or courier of a user ends the
// sessions signed with the old values.
func (s *StaffService) Update(ctx context.Context, actor Actor, id uint, in UpdateStaffInput) (*StaffUserDTO, error) {
	if !actor.Can(identity.CapManageUsers) {
		return nil, forbidden()
	}
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	role := u.Role
	if in.Role != "" {
		if role, err = identity.ParseRole(in.Role); err != nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, err.Error())
		}
	}
	if u.IsPrincipalAdmin() && role != identity.RoleAdmin {
		return nil, shared.NewDomainError(shared.CodeForbidden, "El administrador principal no puede cambiar de rol")
	}
	repartidor := u.Repartidor
	if in.Repartidor != nil {
		repartidor = *in.Repartidor
	}
	if repartidor, err = s.repartidorFor(role, repartidor); err != nil {
		return nil, err
	}
	if in.Email != "" {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if err := s.ensureUnique(ctx, "", email, u.ID); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if nombre := strings.TrimSpace(in.Nombre); nombre != "" {
		u.Nombre = nombre
	}

	sessionsStale := role != u.Role || repartidor != u.Repartidor
	u.Role = role
	u.Repartidor = repartidor
	if err := s.users.Save(ctx, u); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "El usuario o email ya existe")
		}
		s.logger.Error("Failed to update staff user", zap.Uint("user_id", id), zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to update user")
	}
	if sessionsStale {
		s.revokeSessions(ctx, u.ID)
	}
	s.logger.Info("Staff user updated", zap.String("username", u.Username), zap.String("by", actor.Username))
	return toStaffUserDTO(u), nil
}

// Delete removes an account. The principal admin, the caller itself and
// users whose courier still holds tickets cannot be deleted.
func (s *StaffService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.Can(identity.CapManageUsers) {
		return forbidden()
	}
	u, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if u.IsPrincipalAdmin() {
		return shared.NewDomainError(shared.CodeForbidden, "El administrador principal no puede eliminarse")
	}
	if u.ID == actor.UserID {
		return shared.NewDomainError(shared.CodeInvalidState, "No puede eliminar su propia cuenta")
	}
	if u.Repartidor != "" {
		held, err := s.tickets.List(ctx, ticket.ListFilter{Repartidor: u.Repartidor, Limit: 1})
		if err != nil {
			s.logger.Error("Failed to check assigned tickets", zap.Uint("user_id", id), zap.Error(err))
			return shared.NewDomainError(shared.CodeInternal, "Failed to delete user")
		}
		if len(held) > 0 {
			return shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("%s tiene tickets asignados", u.Repartidor))
		}
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		s.logger.Error("Failed to delete staff user", zap.Uint("user_id", id), zap.Error(err))
		return shared.NewDomainError(shared.CodeInternal, "Failed to delete user")
	}
	s.revokeSessions(ctx, u.ID)
	s.logger.Info("Staff user deleted", zap.String("username", u.Username), zap.String("by", actor.Username))
	return nil
}

// ChangePassword replaces the caller's password and ends its other sessions
func (s *StaffService) ChangePassword(ctx context.Context, actor Actor, current, next string) error {
	u, err := s.find(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := s.hasher.Verify(u.PasswordHash, current); err != nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "La contraseña actual es incorrecta")
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return passwordError(err)
	}
	u.PasswordHash = hash
	if err := s.users.Save(ctx, u); err != nil {
		s.logger.Error("Failed to save password", zap.Uint("user_id", u.ID), zap.Error(err))
		return shared.NewDomainError(shared.CodeInternal, "Failed to change password")
	}
	s.revokeSessions(ctx, u.ID)
	s.logger.Info("Staff password changed", zap.String("username", u.Username))
	return nil
}

// SeedDefaults creates the admin account and one flota account per courier
// when the staff table is empty. It returns the number of accounts created.
func (s *StaffService) SeedDefaults(ctx context.Context, in SeedInput) (int, error) {
	existing, err := s.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list staff users: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debug("Staff users present, skipping seed", zap.Int("count", len(existing)))
		return 0, nil
	}

	seeds := []CreateStaffInput{{
		Username: identity.PrincipalAdminUsername,
		Email:    "admin@belgranoahorro.com",
		Nombre:   "Administrador",
		Password: in.AdminPassword,
		Role:     string(identity.RoleAdmin),
	}}
	for i, name := range s.pool.Names() {
		seeds = append(seeds, CreateStaffInput{
			Username:   fmt.Sprintf("repartidor%d", i+1),
			Email:      fmt.Sprintf("repartidor%d@belgranoahorro.com", i+1),
			Nombre:     fmt.Sprintf("Repartidor %d", i+1),
			Password:   in.FlotaPassword,
			Role:       string(identity.RoleFlota),
			Repartidor: name,
		})
	}
	for n, seed := range seeds {
		if _, err := s.create(ctx, seed); err != nil {
			return n, fmt.Errorf("seed %s: %w", seed.Username, err)
		}
	}
	s.logger.Info("Seeded staff users", zap.Int("count", len(seeds)))
	return len(seeds), nil
}

// repartidorFor validates the courier link of a role. Flota users need a
// courier of the pool; admins carry none.
func (s *StaffService) repartidorFor(role identity.Role, repartidor string) (string, error) {
	repartidor = strings.TrimSpace(repartidor)
	if role != identity.RoleFlota {
		return "", nil
	}
	if !s.pool.Contains(repartidor) {
		return "", shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("repartidor must be one of %s", strings.Join(s.pool.Names(), ", ")))
	}
	return repartidor, nil
}

// ensureUnique checks that username and email are free, ignoring the account self
func (s *StaffService) ensureUnique(ctx context.Context, username, email string, self uint) error {
	check := func(u *identity.StaffUser, err error) error {
		if err == nil && u.ID != self {
			return shared.NewDomainError(shared.CodeAlreadyExists, "El usuario o email ya existe")
		}
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Failed to check staff uniqueness", zap.Error(err))
			return shared.NewDomainError(shared.CodeInternal, "Failed to check user")
		}
		return nil
	}
	if username != "" {
		if err := check(s.users.FindByUsername(ctx, strings.TrimSpace(username))); err != nil {
			return err
		}
	}
	if email != "" {
		if err := check(s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))); err != nil {
			return err
		}
	}
	return nil
}

func (s *StaffService) revokeSessions(ctx context.Context, userID uint) {
	subject := auth.SubjectKey(auth.SubjectStaff, userID)
	if err := s.blacklist.RevokeSubject(ctx, subject, s.jwt.Expiration()); err != nil {
		s.logger.Error("Failed to revoke staff sessions", zap.String("subject", subject), zap.Error(err))
	}
}

func (s *StaffService) find(ctx context.Context, id uint) (*identity.StaffUser, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Usuario no encontrado")
		}
		s.logger.Error("Failed to load staff user", zap.Uint("user_id", id), zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to load user")
	}
	return u, nil
}

func staffInvalidCredentials() error {
	return shared.NewDomainError(shared.CodeInvalidCredentials, "Usuario o contraseña incorrectos")
}

func passwordError(err error) error {
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return shared.NewDomainError(shared.CodeInvalidInput, err.Error())
	}
	return shared.NewDomainError(shared.CodeInternal, "Failed to hash password")
}
