package customer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rol is the storefront account type
type Rol string

const (
	RolCliente     Rol = "cliente"
	RolComerciante Rol = "comerciante"
)

// IsValid checks if the rol is known
func (r Rol) IsValid() bool {
	return r == RolCliente || r == RolComerciante
}

const sinIndicaciones = "Sin indicaciones especiales"

// titleCase capitalizes each word. Casers are stateful, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Spanish).String(s)
}

// Usuario is a storefront customer account
type Usuario struct {
	ID           uint
	Nombre       string
	Apellido     string
	Email        string
	Telefono     string
	Direccion    string
	PasswordHash string
	Rol          Rol
	Activo       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUsuarioParams carries registration data; PasswordHash must already be hashed
type NewUsuarioParams struct {
	Nombre       string
	Apellido     string
	Email        string
	Telefono     string
	Direccion    string
	PasswordHash string
	Rol          Rol
}

// NewUsuario validates registration data
func NewUsuario(p NewUsuarioParams) (*Usuario, error) {
	nombre := strings.TrimSpace(p.Nombre)
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if nombre == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "nombre is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "a valid email is required")
	}
	if p.PasswordHash == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "password is required")
	}
	rol := p.Rol
	if rol == "" {
		rol = RolCliente
	}
	if !rol.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown rol %q", p.Rol))
	}
	now := time.Now()
	return &Usuario{
		Nombre:       nombre,
		Apellido:     strings.TrimSpace(p.Apellido),
		Email:        email,
		Telefono:     strings.TrimSpace(p.Telefono),
		Direccion:    strings.TrimSpace(p.Direccion),
		PasswordHash: p.PasswordHash,
		Rol:          rol,
		Activo:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsComerciante reports whether the account belongs to a merchant
func (u *Usuario) IsComerciante() bool {
	return u.Rol == RolComerciante
}

// NombreCompleto returns "Nombre Apellido", or just the name when there is no surname
func (u *Usuario) NombreCompleto() string {
	if u.Apellido == "" {
		return titleCase(u.Nombre)
	}
	return titleCase(u.Nombre + " " + u.Apellido)
}

// ClienteNombre is the name printed on the delivery ticket. Merchants are
// shown as "<negocio> - <nombre>".
func (u *Usuario) ClienteNombre(c *Comerciante) string {
	if u.IsComerciante() && c != nil {
		return c.NombreNegocio + " - " + u.NombreCompleto()
	}
	return u.NombreCompleto()
}

// Indicaciones builds the courier instructions for an order. Merchant orders
// are prefixed with the business details.
func (u *Usuario) Indicaciones(notas string, c *Comerciante) string {
	notas = strings.TrimSpace(notas)
	if notas == "" {
		notas = sinIndicaciones
	}
	if !u.IsComerciante() {
		return notas
	}
	if c == nil {
		return "COMERCIANTE - " + notas
	}
	prefix := "COMERCIANTE - Negocio: " + c.NombreNegocio
	if c.TipoNegocio != "" {
		prefix += ", Tipo: " + c.TipoNegocio
	}
	if c.CUIT != "" {
		prefix += ", CUIT: " + c.CUIT
	}
	return prefix + ". " + notas
}

// UpdateProfile edits the contact data of the account
func (u *Usuario) UpdateProfile(nombre, telefono, direccion string) error {
	if strings.TrimSpace(nombre) == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "nombre is required")
	}
	u.Nombre = strings.TrimSpace(nombre)
	u.Telefono = strings.TrimSpace(telefono)
	u.Direccion = strings.TrimSpace(direccion)
	u.UpdatedAt = time.Now()
	return nil
}

// Comerciante is the business profile of a merchant account
type Comerciante struct {
	ID                 uint
	UsuarioID          uint
	NombreNegocio      string
	CUIT               string
	DireccionComercial string
	TelefonoComercial  string
	TipoNegocio        string
	Activo             bool
	CreatedAt          time.Time
}

// NewComerciante validates a merchant profile
func NewComerciante(usuarioID uint, nombreNegocio, cuit, direccion, telefono, tipo string) (*Comerciante, error) {
	if strings.TrimSpace(nombreNegocio) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "nombre_negocio is required")
	}
	return &Comerciante{
		UsuarioID:          usuarioID,
		NombreNegocio:      strings.TrimSpace(nombreNegocio),
		CUIT:               strings.TrimSpace(cuit),
		DireccionComercial: strings.TrimSpace(direccion),
		TelefonoComercial:  strings.TrimSpace(telefono),
		TipoNegocio:        strings.TrimSpace(tipo),
		Activo:             true,
		CreatedAt:          time.Now(),
	}, nil
}

// Repository persists customer accounts
type Repository interface {
	Save(ctx context.Context, u *Usuario) error
	FindByID(ctx context.Context, id uint) (*Usuario, error)
	FindByEmail(ctx context.Context, email string) (*Usuario, error)
	SaveComerciante(ctx context.Context, c *Comerciante) error
	// FindComerciante returns shared.ErrNotFound when the user has no profile
	FindComerciante(ctx context.Context, usuarioID uint) (*Comerciante, error)
	CountActive(ctx context.Context) (int64, error)
}
