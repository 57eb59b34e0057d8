package storefront

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/belgrano/backend/internal/domain/catalog"
	"github.com/belgrano/backend/internal/domain/customer"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderListLimit caps order listings
const OrderListLimit = 100

// OrderService reads orders and applies the progress reported by ticketing
type OrderService struct {
	orders    order.Repository
	syncs     order.TicketSyncRepository
	customers customer.Repository
	source    catalog.Source
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	orders order.Repository,
	syncs order.TicketSyncRepository,
	customers customer.Repository,
	source catalog.Source,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		syncs:     syncs,
		customers: customers,
		source:    source,
		logger:    logger,
	}
}

// List returns the most recent orders with their customers
func (s *OrderService) List(ctx context.Context) ([]*OrderDTO, error) {
	pedidos, err := s.orders.List(ctx, OrderListLimit)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to list orders")
	}
	users := make(map[uint]*customer.Usuario)
	out := make([]*OrderDTO, len(pedidos))
	for i, p := range pedidos {
		u, ok := users[p.UsuarioID]
		if !ok {
			u = s.customerOf(ctx, p.UsuarioID)
			users[p.UsuarioID] = u
		}
		out[i] = toOrderDTO(p, u)
	}
	return out, nil
}

// GetByNumero returns one order
func (s *OrderService) GetByNumero(ctx context.Context, numero string) (*OrderDTO, error) {
	p, err := s.findByNumero(ctx, numero)
	if err != nil {
		return nil, err
	}
	return toOrderDTO(p, s.customerOf(ctx, p.UsuarioID)), nil
}

// UpdateEstado applies an estado reported by the ticketing service. The
// ticketing vocabulary is accepted, so entregado lands as completado.
func (s *OrderService) UpdateEstado(ctx context.Context, numero, estado string) (*OrderDTO, error) {
	if strings.TrimSpace(estado) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Estado requerido")
	}
	e, err := order.ParseEstado(estado)
	if err != nil {
		return nil, err
	}
	p, err := s.findByNumero(ctx, numero)
	if err != nil {
		return nil, err
	}
	from := p.Estado
	if err := p.UpdateEstado(e); err != nil {
		return nil, err
	}
	if from != p.Estado {
		if err := s.orders.UpdateEstado(ctx, p); err != nil {
			s.logger.Error("Failed to update order estado", zap.String("numero", numero), zap.Error(err))
			return nil, shared.NewDomainError(shared.CodeInternal, "Failed to update order")
		}
		s.logger.Info("Order estado updated",
			zap.String("numero", numero),
			zap.String("from", string(from)),
			zap.String("to", string(p.Estado)))
	}
	return toOrderDTO(p, nil), nil
}

// ListMine returns the orders of one customer, newest first
func (s *OrderService) ListMine(ctx context.Context, usuarioID uint) ([]*OrderDTO, error) {
	pedidos, err := s.orders.ListByUsuario(ctx, usuarioID)
	if err != nil {
		s.logger.Error("Failed to list customer orders", zap.Uint("usuario_id", usuarioID), zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to list orders")
	}
	out := make([]*OrderDTO, len(pedidos))
	for i, p := range pedidos {
		out[i] = toOrderDTO(p, nil)
	}
	return out, nil
}

// GetMine returns an order only when it belongs to the customer
func (s *OrderService) GetMine(ctx context.Context, usuarioID uint, numero string) (*OrderDTO, error) {
	p, err := s.findByNumero(ctx, numero)
	if err != nil {
		return nil, err
	}
	if p.UsuarioID != usuarioID {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Pedido no encontrado")
	}
	return toOrderDTO(p, nil), nil
}

// Stats summarizes accounts, catalog and sales
func (s *OrderService) Stats(ctx context.Context) (*StatsDTO, error) {
	usuarios, err := s.customers.CountActive(ctx)
	if err != nil {
		return nil, s.statsError(err)
	}
	pedidos, err := s.orders.Count(ctx)
	if err != nil {
		return nil, s.statsError(err)
	}
	porEstado, err := s.orders.CountByEstado(ctx)
	if err != nil {
		return nil, s.statsError(err)
	}
	ventas, err := s.orders.TotalVentas(ctx)
	if err != nil {
		return nil, s.statsError(err)
	}
	var productos int64
	if cat, err := s.source.Load(ctx); err == nil {
		productos = int64(len(cat.Active()))
	} else {
		s.logger.Warn("Catalog unavailable for stats", zap.Error(err))
	}

	byEstado := make(map[string]int64, len(porEstado))
	for e, n := range porEstado {
		byEstado[string(e)] = n
	}
	return &StatsDTO{
		TotalUsuarios:    usuarios,
		TotalProductos:   productos,
		TotalPedidos:     pedidos,
		PedidosPorEstado: byEstado,
		TotalVentas:      ventas,
	}, nil
}

// SyncTickets stores ticket snapshots pushed by the ticketing service
func (s *OrderService) SyncTickets(ctx context.Context, items []order.TicketSync) (int, error) {
	now := time.Now()
	kept := make([]order.TicketSync, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.NumeroPedido) == "" {
			continue
		}
		it.SyncedAt = now
		kept = append(kept, it)
	}
	if len(kept) == 0 {
		return 0, nil
	}
	if err := s.syncs.Upsert(ctx, kept); err != nil {
		s.logger.Error("Failed to store ticket snapshots", zap.Int("count", len(kept)), zap.Error(err))
		return 0, shared.NewDomainError(shared.CodeInternal, "Failed to sync tickets")
	}
	s.logger.Info("Ticket snapshots synced", zap.Int("count", len(kept)))
	return len(kept), nil
}

// TicketSnapshots lists the stored ticket snapshots
func (s *OrderService) TicketSnapshots(ctx context.Context) ([]order.TicketSync, error) {
	items, err := s.syncs.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list ticket snapshots", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to list synced tickets")
	}
	return items, nil
}

func (s *OrderService) findByNumero(ctx context.Context, numero string) (*order.Pedido, error) {
	p, err := s.orders.FindByNumero(ctx, numero)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Pedido no encontrado")
		}
		s.logger.Error("Failed to load order", zap.String("numero", numero), zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to load order")
	}
	return p, nil
}

// customerOf returns nil when the account cannot be loaded
func (s *OrderService) customerOf(ctx context.Context, id uint) *customer.Usuario {
	u, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil
	}
	return u
}

func (s *OrderService) statsError(err error) error {
	s.logger.Error("Failed to compute stats", zap.Error(err))
	return shared.NewDomainError(shared.CodeInternal, "Failed to compute stats")
}
