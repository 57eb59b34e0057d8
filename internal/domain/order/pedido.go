package order

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estado is the storefront view of an order's progress
type Estado string

const (
	EstadoPendiente     Estado = "pendiente"
	EstadoEnPreparacion Estado = "en-preparacion"
	EstadoEnCamino      Estado = "en-camino"
	EstadoCompletado    Estado = "completado"
	EstadoCancelado     Estado = "cancelado"
)

// IsValid checks if the estado is known
func (e Estado) IsValid() bool {
	switch e {
	case EstadoPendiente, EstadoEnPreparacion, EstadoEnCamino, EstadoCompletado, EstadoCancelado:
		return true
	}
	return false
}

// IsTerminal reports whether the order is closed
func (e Estado) IsTerminal() bool {
	return e == EstadoCompletado || e == EstadoCancelado
}

// progress orders the delivery path; cancelado is off the path
var progress = map[Estado]int{
	EstadoPendiente:     0,
	EstadoEnPreparacion: 1,
	EstadoEnCamino:      2,
	EstadoCompletado:    3,
}

// CanMoveTo reports whether an order in e may be reported as target.
// Progress only moves forward (steps may be skipped) and any open order
// may be cancelled.
func (e Estado) CanMoveTo(target Estado) bool {
	if e.IsTerminal() || !target.IsValid() || e == target {
		return false
	}
	return target == EstadoCancelado || progress[target] > progress[e]
}

// ParseEstado accepts storefront estados and the ticketing vocabulary
// ("entregado" means the order is completado).
func ParseEstado(s string) (Estado, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "entregado" {
		return EstadoCompletado, nil
	}
	e := Estado(s)
	if !e.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown estado %q", s))
	}
	return e, nil
}

// DefaultMetodoPago is used when checkout does not name one
const DefaultMetodoPago = "efectivo"

// MetodosPago lists the payment methods offered at checkout
var MetodosPago = []string{"efectivo", "tarjeta", "transferencia", "mercadopago"}

// IsMetodoPago reports whether m is an offered payment method
func IsMetodoPago(m string) bool {
	return slices.Contains(MetodosPago, m)
}

// Item is one line of an order
type Item struct {
	ID             uint
	ProductoID     string
	Nombre         string
	Cantidad       int
	PrecioUnitario decimal.Decimal
	Subtotal       decimal.Decimal
}

// Pedido is a confirmed storefront order
type Pedido struct {
	shared.BaseAggregateRoot
	Numero           string
	UsuarioID        uint
	Items            []Item
	Total            decimal.Decimal
	MetodoPago       string
	DireccionEntrega string
	Notas            string
	Estado           Estado
}

// NewNumeroPedido builds an order number: PED-YYYYMMDD-XXXXXXXX
func NewNumeroPedido(now time.Time) string {
	code := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("PED-%s-%s", now.Format("20060102"), code)
}

// NewPedidoParams carries checkout data
type NewPedidoParams struct {
	Numero           string
	UsuarioID        uint
	Items            []Item
	MetodoPago       string
	DireccionEntrega string
	Notas            string
}

// NewPedido validates checkout data and recomputes subtotals and total
func NewPedido(p NewPedidoParams) (*Pedido, error) {
	if p.UsuarioID == 0 {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "checkout requires a logged-in customer")
	}
	if strings.TrimSpace(p.DireccionEntrega) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "direccion de entrega is required")
	}
	if len(p.Items) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "the cart is empty")
	}

	items := make([]Item, 0, len(p.Items))
	total := decimal.Zero
	for _, it := range p.Items {
		if it.Cantidad <= 0 {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("invalid quantity for %s", it.ProductoID))
		}
		it.Subtotal = it.PrecioUnitario.Mul(decimal.NewFromInt(int64(it.Cantidad)))
		total = total.Add(it.Subtotal)
		items = append(items, it)
	}

	numero := p.Numero
	if numero == "" {
		numero = NewNumeroPedido(time.Now())
	}
	metodo := strings.TrimSpace(p.MetodoPago)
	if metodo == "" {
		metodo = DefaultMetodoPago
	}

	return &Pedido{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Numero:            numero,
		UsuarioID:         p.UsuarioID,
		Items:             items,
		Total:             total,
		MetodoPago:        metodo,
		DireccionEntrega:  strings.TrimSpace(p.DireccionEntrega),
		Notas:             strings.TrimSpace(p.Notas),
		Estado:            EstadoPendiente,
	}, nil
}

// UpdateEstado records progress reported by the ticketing service.
// Re-applying the current estado is a no-op. A late update that would move
// the order backwards, or any change to a closed order, is INVALID_STATE.
func (p *Pedido) UpdateEstado(e Estado) error {
	if !e.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown estado %q", e))
	}
	if p.Estado == e {
		return nil
	}
	if p.Estado.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("order %s is already %s", p.Numero, p.Estado))
	}
	if !p.Estado.CanMoveTo(e) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("order %s cannot go back from %s to %s", p.Numero, p.Estado, e))
	}
	p.Estado = e
	p.Touch()
	return nil
}

// Repetir creates a new order with the same lines as a past one
func Repetir(orig *Pedido, usuarioID uint) (*Pedido, error) {
	if orig.UsuarioID != usuarioID {
		return nil, shared.NewDomainError(shared.CodeNotFound, "order not found")
	}
	items := make([]Item, len(orig.Items))
	for i, it := range orig.Items {
		it.ID = 0
		items[i] = it
	}
	return NewPedido(NewPedidoParams{
		UsuarioID:        usuarioID,
		Items:            items,
		MetodoPago:       orig.MetodoPago,
		DireccionEntrega: orig.DireccionEntrega,
		Notas:            "Pedido repetido del " + orig.Numero,
	})
}
