package storefront

import (
	"context"

	"github.com/belgrano/backend/internal/domain/cart"
	"github.com/belgrano/backend/internal/domain/catalog"
	"github.com/belgrano/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CartService manages shopping carts keyed by the carrito_id cookie
type CartService struct {
	store  cart.Store
	source catalog.Source
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store cart.Store, source catalog.Source, logger *zap.Logger) *CartService {
	return &CartService{store: store, source: source, logger: logger}
}

// View prices the cart against the current catalog
func (s *CartService) View(ctx context.Context, cartID string) (*CartView, error) {
	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, s.storeError("load", cartID, err)
	}
	return s.price(ctx, c)
}

// Add puts qty units of a product in the cart; qty <= 0 counts as one
func (s *CartService) Add(ctx context.Context, cartID, productoID string, qty int) (*CartView, error) {
	cat, err := s.source.Load(ctx)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeCatalogUnavailable, "Catalog is not available")
	}
	if _, ok := cat.FindProduct(productoID); !ok {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Producto no encontrado")
	}
	return s.mutate(ctx, cartID, func(c *cart.Cart) { c.Add(productoID, qty) })
}

// SetQuantity replaces the quantity of a product; qty <= 0 removes it
func (s *CartService) SetQuantity(ctx context.Context, cartID, productoID string, qty int) (*CartView, error) {
	return s.mutate(ctx, cartID, func(c *cart.Cart) { c.SetQuantity(productoID, qty) })
}

// Remove drops a product from the cart
func (s *CartService) Remove(ctx context.Context, cartID, productoID string) (*CartView, error) {
	return s.mutate(ctx, cartID, func(c *cart.Cart) { c.Remove(productoID) })
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, cartID string) error {
	if err := s.store.Delete(ctx, cartID); err != nil {
		return s.storeError("clear", cartID, err)
	}
	return nil
}

func (s *CartService) mutate(ctx context.Context, cartID string, fn func(*cart.Cart)) (*CartView, error) {
	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, s.storeError("load", cartID, err)
	}
	fn(c)
	if err := s.store.Save(ctx, c); err != nil {
		return nil, s.storeError("save", cartID, err)
	}
	return s.price(ctx, c)
}

func (s *CartService) price(ctx context.Context, c *cart.Cart) (*CartView, error) {
	cat, err := s.source.Load(ctx)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeCatalogUnavailable, "Catalog is not available")
	}
	priced := c.Price(cat)
	return &CartView{ID: c.ID, Items: priced.Lines, Total: priced.Total, Cantidad: c.Count()}, nil
}

func (s *CartService) storeError(op, cartID string, err error) error {
	s.logger.Error("Cart store failure", zap.String("op", op), zap.String("cart_id", cartID), zap.Error(err))
	return shared.NewDomainError(shared.CodeInternal, "Failed to access the cart")
}
