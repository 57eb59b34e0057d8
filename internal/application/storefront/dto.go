package storefront

import (
	"time"

	"github.com/belgrano/backend/internal/domain/cart"
	"github.com/belgrano/backend/internal/domain/customer"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// CartView is a cart priced at current catalog prices
type CartView struct {
	ID       string          `json:"id"`
	Items    []cart.Line     `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Cantidad int             `json:"cantidad"`
}

// RegisterInput carries a sign-up form. Merchant fields are only read when
// Rol is comerciante.
type RegisterInput struct {
	Nombre             string `json:"nombre" binding:"required,max=100"`
	Apellido           string `json:"apellido" binding:"max=100"`
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password" binding:"required,min=6"`
	Telefono           string `json:"telefono" binding:"max=50"`
	Direccion          string `json:"direccion" binding:"max=255"`
	Rol                string `json:"rol" binding:"omitempty,oneof=cliente comerciante"`
	NombreNegocio      string `json:"nombre_negocio" binding:"required_if=Rol comerciante"`
	CUIT               string `json:"cuit"`
	DireccionComercial string `json:"direccion_comercial"`
	TelefonoComercial  string `json:"telefono_comercial"`
	TipoNegocio        string `json:"tipo_negocio"`
}

// UpdateProfileInput edits contact data
type UpdateProfileInput struct {
	Nombre    string `json:"nombre" binding:"required,max=100"`
	Telefono  string `json:"telefono" binding:"max=50"`
	Direccion string `json:"direccion" binding:"max=255"`
}

// ChangePasswordInput replaces the account password
type ChangePasswordInput struct {
	PasswordActual string `json:"password_actual" binding:"required"`
	PasswordNueva  string `json:"password_nueva" binding:"required,min=6"`
}

// ComercianteDTO is the business profile of a merchant
type ComercianteDTO struct {
	NombreNegocio      string `json:"nombre_negocio"`
	CUIT               string `json:"cuit,omitempty"`
	DireccionComercial string `json:"direccion_comercial,omitempty"`
	TelefonoComercial  string `json:"telefono_comercial,omitempty"`
	TipoNegocio        string `json:"tipo_negocio,omitempty"`
}

// ProfileDTO is the customer's own account view
type ProfileDTO struct {
	ID          uint            `json:"id"`
	Nombre      string          `json:"nombre"`
	Apellido    string          `json:"apellido,omitempty"`
	Email       string          `json:"email"`
	Telefono    string          `json:"telefono,omitempty"`
	Direccion   string          `json:"direccion,omitempty"`
	Rol         string          `json:"rol"`
	Comerciante *ComercianteDTO `json:"comerciante,omitempty"`
	CreatedAt   time.Time       `json:"fecha_registro"`
}

func toProfileDTO(u *customer.Usuario, c *customer.Comerciante) *ProfileDTO {
	p := &ProfileDTO{
		ID:        u.ID,
		Nombre:    u.Nombre,
		Apellido:  u.Apellido,
		Email:     u.Email,
		Telefono:  u.Telefono,
		Direccion: u.Direccion,
		Rol:       string(u.Rol),
		CreatedAt: u.CreatedAt,
	}
	if c != nil {
		p.Comerciante = &ComercianteDTO{
			NombreNegocio:      c.NombreNegocio,
			CUIT:               c.CUIT,
			DireccionComercial: c.DireccionComercial,
			TelefonoComercial:  c.TelefonoComercial,
			TipoNegocio:        c.TipoNegocio,
		}
	}
	return p
}

// LoginResult is a signed session plus the account it belongs to
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	Usuario     *ProfileDTO `json:"usuario"`
}

// CheckoutInput is the checkout form of a logged-in customer
type CheckoutInput struct {
	UsuarioID        uint   `json:"-"`
	CartID           string `json:"-"`
	DireccionEntrega string `json:"direccion" binding:"required,max=255"`
	MetodoPago       string `json:"metodo_pago" binding:"omitempty,metodo_pago"`
	Notas            string `json:"notas" binding:"max=500"`
}

// ClienteDTO identifies the customer of an order
type ClienteDTO struct {
	ID       uint   `json:"id"`
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Telefono string `json:"telefono,omitempty"`
}

// OrderItemDTO is one order line
type OrderItemDTO struct {
	ProductoID     string          `json:"producto_id"`
	ProductoNombre string          `json:"producto_nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// OrderDTO is an order as listed by the storefront and its API
type OrderDTO struct {
	ID           uint            `json:"id"`
	NumeroPedido string          `json:"numero_pedido"`
	Cliente      *ClienteDTO     `json:"cliente,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Estado       string          `json:"estado"`
	MetodoPago   string          `json:"metodo_pago"`
	Direccion    string          `json:"direccion"`
	Notas        string          `json:"notas"`
	FechaPedido  time.Time       `json:"fecha_pedido"`
	Items        []OrderItemDTO  `json:"items"`
}

func toOrderDTO(p *order.Pedido, u *customer.Usuario) *OrderDTO {
	items := make([]OrderItemDTO, len(p.Items))
	for i, it := range p.Items {
		items[i] = OrderItemDTO{
			ProductoID:     it.ProductoID,
			ProductoNombre: it.Nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		}
	}
	dto := &OrderDTO{
		ID:           p.ID,
		NumeroPedido: p.Numero,
		Total:        p.Total,
		Estado:       string(p.Estado),
		MetodoPago:   p.MetodoPago,
		Direccion:    p.DireccionEntrega,
		Notas:        p.Notas,
		FechaPedido:  p.CreatedAt,
		Items:        items,
	}
	if u != nil {
		dto.Cliente = &ClienteDTO{ID: u.ID, Nombre: u.NombreCompleto(), Email: u.Email, Telefono: u.Telefono}
	}
	return dto
}

// StatsDTO summarizes storefront activity for the ticketing side
type StatsDTO struct {
	TotalUsuarios    int64            `json:"total_usuarios"`
	TotalProductos   int64            `json:"total_productos"`
	TotalPedidos     int64            `json:"total_pedidos"`
	PedidosPorEstado map[string]int64 `json:"pedidos_por_estado"`
	TotalVentas      decimal.Decimal  `json:"total_ventas"`
}
