package storefront

import (
	"context"
	"errors"
	"strings"

	"github.com/belgrano/backend/internal/domain/customer"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// CustomerService handles storefront accounts and sessions
type CustomerService struct {
	repo      customer.Repository
	hasher    *auth.PasswordHasher
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	repo customer.Repository,
	hasher *auth.PasswordHasher,
	jwt *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		repo:      repo,
		hasher:    hasher,
		jwt:       jwt,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Register creates a cliente account, or a comerciante account with its
// business profile.
func (s *CustomerService) Register(ctx context.Context, in RegisterInput) (*ProfileDTO, error) {
	rol := customer.RolCliente
	if in.Rol != "" {
		rol = customer.Rol(in.Rol)
	}

	if _, err := s.repo.FindByEmail(ctx, normalizeEmail(in.Email)); err == nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "El email ya está registrado")
	} else if !errors.Is(err, shared.ErrNotFound) {
		s.logger.Error("Failed to look up email", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to register account")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, passwordError(err)
	}
	u, err := customer.NewUsuario(customer.NewUsuarioParams{
		Nombre:       in.Nombre,
		Apellido:     in.Apellido,
		Email:        in.Email,
		Telefono:     in.Telefono,
		Direccion:    in.Direccion,
		PasswordHash: hash,
		Rol:          rol,
	})
	if err != nil {
		return nil, err
	}

	var com *customer.Comerciante
	if u.IsComerciante() {
		// validate the profile before the account row exists
		if com, err = customer.NewComerciante(0, in.NombreNegocio, in.CUIT, in.DireccionComercial, in.TelefonoComercial, in.TipoNegocio); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, u); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "El email ya está registrado")
		}
		s.logger.Error("Failed to save customer", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to register account")
	}
	if com != nil {
		com.UsuarioID = u.ID
		if err := s.repo.SaveComerciante(ctx, com); err != nil {
			s.logger.Error("Failed to save merchant profile", zap.Uint("usuario_id", u.ID), zap.Error(err))
			return nil, shared.NewDomainError(shared.CodeInternal, "Failed to register merchant profile")
		}
	}

	s.logger.Info("Customer registered", zap.Uint("usuario_id", u.ID), zap.String("rol", string(u.Rol)))
	return toProfileDTO(u, com), nil
}

// Login checks credentials and signs a customer session
func (s *CustomerService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Failed to look up customer", zap.Error(err))
		}
		return nil, invalidCredentials()
	}
	if !u.Activo {
		s.logger.Warn("Login attempt for inactive account", zap.Uint("usuario_id", u.ID))
		return nil, shared.NewDomainError(shared.CodeAccountInactive, "La cuenta está desactivada")
	}
	if err := s.hasher.Verify(u.PasswordHash, password); err != nil {
		s.logger.Warn("Invalid password attempt", zap.Uint("usuario_id", u.ID))
		return nil, invalidCredentials()
	}

	tok, err := s.jwt.GenerateToken(auth.TokenInput{
		UserID:   u.ID,
		Username: u.Email,
		Kind:     auth.SubjectCustomer,
		Role:     string(u.Rol),
	})
	if err != nil {
		s.logger.Error("Failed to sign customer token", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to generate authentication token")
	}

	return &LoginResult{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresAt:   tok.ExpiresAt,
		Usuario:     toProfileDTO(u, s.comercianteOf(ctx, u)),
	}, nil
}

// Logout revokes the presented token until it would have expired anyway
func (s *CustomerService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke token", zap.Error(err))
		return shared.NewDomainError(shared.CodeInternal, "Failed to log out")
	}
	return nil
}

// Profile returns the account of the logged-in customer
func (s *CustomerService) Profile(ctx context.Context, usuarioID uint) (*ProfileDTO, error) {
	u, err := s.find(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	return toProfileDTO(u, s.comercianteOf(ctx, u)), nil
}

// UpdateProfile edits contact data
func (s *CustomerService) UpdateProfile(ctx context.Context, usuarioID uint, in UpdateProfileInput) (*ProfileDTO, error) {
	u, err := s.find(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	if err := u.UpdateProfile(in.Nombre, in.Telefono, in.Direccion); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, u); err != nil {
		s.logger.Error("Failed to update customer", zap.Uint("usuario_id", usuarioID), zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to update profile")
	}
	return toProfileDTO(u, s.comercianteOf(ctx, u)), nil
}

// ChangePassword replaces the password and invalidates every open session
func (s *CustomerService) ChangePassword(ctx context.Context, usuarioID uint, in ChangePasswordInput) error {
	u, err := s.find(ctx, usuarioID)
	if err != nil {
		return err
	}
	if err := s.hasher.Verify(u.PasswordHash, in.PasswordActual); err != nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "La contraseña actual es incorrecta")
	}
	hash, err := s.hasher.Hash(in.PasswordNueva)
	if err != nil {
		return passwordError(err)
	}
	u.PasswordHash = hash
	if err := s.repo.Save(ctx, u); err != nil {
		s.logger.Error("Failed to save password", zap.Uint("usuario_id", usuarioID), zap.Error(err))
		return shared.NewDomainError(shared.CodeInternal, "Failed to change password")
	}
	subject := auth.SubjectKey(auth.SubjectCustomer, u.ID)
	if err := s.blacklist.RevokeSubject(ctx, subject, s.jwt.Expiration()); err != nil {
		s.logger.Error("Failed to revoke customer sessions", zap.String("subject", subject), zap.Error(err))
	}
	s.logger.Info("Customer password changed", zap.Uint("usuario_id", usuarioID))
	return nil
}

func (s *CustomerService) find(ctx context.Context, id uint) (*customer.Usuario, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Usuario no encontrado")
		}
		s.logger.Error("Failed to load customer", zap.Uint("usuario_id", id), zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to load account")
	}
	return u, nil
}

// comercianteOf returns the merchant profile, or nil for plain customers
func (s *CustomerService) comercianteOf(ctx context.Context, u *customer.Usuario) *customer.Comerciante {
	if !u.IsComerciante() {
		return nil
	}
	c, err := s.repo.FindComerciante(ctx, u.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Failed to load merchant profile", zap.Uint("usuario_id", u.ID), zap.Error(err))
		}
		return nil
	}
	return c
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() error {
	return shared.NewDomainError(shared.CodeInvalidCredentials, "Email o contraseña incorrectos")
}

func passwordError(err error) error {
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return shared.NewDomainError(shared.CodeInvalidInput, err.Error())
	}
	return shared.NewDomainError(shared.CodeInternal, "Failed to hash password")
}
