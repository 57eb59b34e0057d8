package storefront

import (
	"context"
	"errors"
	"time"

	"github.com/belgrano/backend/internal/domain/cart"
	"github.com/belgrano/backend/internal/domain/catalog"
	"github.com/belgrano/backend/internal/domain/customer"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const ticketFechaLayout = "2006-01-02 15:04:05"

// OutboxNotifier wakes the outbox worker once new entries are committed
type OutboxNotifier interface {
	Notify()
}

// CheckoutService turns a cart into a confirmed order. The order row and
// the order.confirmed outbox entry commit together; delivery to the
// ticketing service happens later, in the outbox worker.
type CheckoutService struct {
	tx        TransactionScope
	orders    order.Repository
	customers customer.Repository
	carts     cart.Store
	source    catalog.Source
	notifier  OutboxNotifier
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckoutService creates a new checkout service. notifier may be nil.
func NewCheckoutService(
	tx TransactionScope,
	orders order.Repository,
	customers customer.Repository,
	carts cart.Store,
	source catalog.Source,
	notifier OutboxNotifier,
	metrics *telemetry.BusinessMetrics,
	logger *zap.Logger,
) *CheckoutService {
	if metrics == nil {
		metrics = telemetry.NoopBusinessMetrics()
	}
	return &CheckoutService{
		tx:        tx,
		orders:    orders,
		customers: customers,
		carts:     carts,
		source:    source,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout confirms the cart of a logged-in customer
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*OrderDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "checkout", telemetry.SpanAttrUsuarioID, in.UsuarioID)
	defer span.End()

	if in.UsuarioID == 0 {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Debe iniciar sesión para finalizar la compra")
	}
	u, com, err := s.loadCustomer(ctx, in.UsuarioID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, in.CartID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("cart_id", in.CartID), zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to load the cart")
	}
	if c.IsEmpty() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "El carrito está vacío")
	}
	cat, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load catalog", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeCatalogUnavailable, "Catalog is not available")
	}

	// totals come from the catalog as loaded now, not from the cart
	priced := c.Price(cat)
	items := make([]order.Item, len(priced.Lines))
	for i, l := range priced.Lines {
		items[i] = order.Item{
			ProductoID:     l.Producto.ID,
			Nombre:         l.Producto.Nombre,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.Producto.Precio,
		}
	}

	p, err := order.NewPedido(order.NewPedidoParams{
		Numero:           order.NewNumeroPedido(s.now()),
		UsuarioID:        u.ID,
		Items:            items,
		MetodoPago:       in.MetodoPago,
		DireccionEntrega: in.DireccionEntrega,
		Notas:            in.Notas,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.place(ctx, p, u, com); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.carts.Delete(ctx, in.CartID); err != nil {
		// the order is committed; a stale cart is only cosmetic
		s.logger.Warn("Failed to clear cart after checkout", zap.String("cart_id", in.CartID), zap.Error(err))
	}
	return toOrderDTO(p, u), nil
}

// Repeat places a new order with the lines of one of the customer's past orders
func (s *CheckoutService) Repeat(ctx context.Context, usuarioID, pedidoID uint) (*OrderDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "repeat", telemetry.SpanAttrUsuarioID, usuarioID)
	defer span.End()

	u, com, err := s.loadCustomer(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	orig, err := s.orders.FindByID(ctx, pedidoID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Pedido no encontrado")
		}
		s.logger.Error("Failed to load order", zap.Uint("pedido_id", pedidoID), zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to load order")
	}
	p, err := order.Repetir(orig, u.ID)
	if err != nil {
		return nil, err
	}
	p.Numero = order.NewNumeroPedido(s.now())
	if err := s.place(ctx, p, u, com); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return toOrderDTO(p, u), nil
}

// place writes the order and its outbox entry in one transaction
func (s *CheckoutService) place(ctx context.Context, p *order.Pedido, u *customer.Usuario, com *customer.Comerciante) error {
	payload := buildTicketPayload(p, u, com)
	err := s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Orders().Save(ctx, p); err != nil {
			return err
		}
		return repos.Events().Publish(ctx, order.NewPedidoConfirmadoEvent(p, payload))
	})
	if err != nil {
		s.logger.Error("Failed to place order", zap.String("numero", p.Numero), zap.Error(err))
		return shared.NewDomainError(shared.CodeInternal, "No se pudo registrar el pedido")
	}

	total, _ := p.Total.Float64()
	s.metrics.RecordOrderPlaced(ctx, payload.TipoCliente, total)
	if s.notifier != nil {
		s.notifier.Notify()
	}
	s.logger.Info("Order placed",
		zap.String("numero", p.Numero),
		zap.Uint("usuario_id", u.ID),
		zap.String("total", p.Total.StringFixed(2)),
		zap.String("tipo_cliente", payload.TipoCliente))
	return nil
}

func (s *CheckoutService) loadCustomer(ctx context.Context, id uint) (*customer.Usuario, *customer.Comerciante, error) {
	u, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewDomainError(shared.CodeUnauthorized, "Debe iniciar sesión para finalizar la compra")
		}
		s.logger.Error("Failed to load customer", zap.Uint("usuario_id", id), zap.Error(err))
		return nil, nil, shared.NewDomainError(shared.CodeInternal, "Failed to load account")
	}
	if !u.IsComerciante() {
		return u, nil, nil
	}
	com, err := s.customers.FindComerciante(ctx, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("Failed to load merchant profile", zap.Uint("usuario_id", id), zap.Error(err))
	}
	return u, com, nil
}

// buildTicketPayload snapshots what the ticketing service needs to open the
// delivery ticket. Merchant orders always travel with alta priority.
func buildTicketPayload(p *order.Pedido, u *customer.Usuario, com *customer.Comerciante) order.TicketPayload {
	productos := make([]order.TicketProducto, len(p.Items))
	for i, it := range p.Items {
		productos[i] = order.TicketProducto{
			Nombre:   it.Nombre,
			Cantidad: it.Cantidad,
			Precio:   it.PrecioUnitario,
			Subtotal: it.Subtotal,
		}
	}
	tipo := ticket.TipoClienteMinorista
	if u.IsComerciante() {
		tipo = ticket.TipoClienteComerciante
	}
	return order.TicketPayload{
		Numero:           p.Numero,
		ClienteNombre:    u.ClienteNombre(com),
		ClienteDireccion: p.DireccionEntrega,
		ClienteTelefono:  u.Telefono,
		ClienteEmail:     u.Email,
		Productos:        productos,
		Total:            p.Total,
		MetodoPago:       p.MetodoPago,
		Fecha:            p.CreatedAt.Format(ticketFechaLayout),
		Indicaciones:     u.Indicaciones(p.Notas, com),
		Estado:           string(order.EstadoPendiente),
		Prioridad:        string(ticket.DerivePrioridad("", tipo)),
		TipoCliente:      string(tipo),
	}
}
