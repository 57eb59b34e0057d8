package cart

import (
	"context"

	"github.com/belgrano/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Cart maps product IDs to quantities, preserving insertion order
type Cart struct {
	ID    string `json:"id"`
	Items []Item `json:"items"`
}

// Item is one product entry of a cart
type Item struct {
	ProductoID string `json:"producto_id"`
	Cantidad   int    `json:"cantidad"`
}

// New creates an empty cart
func New(id string) *Cart {
	return &Cart{ID: id, Items: []Item{}}
}

// Add increments the quantity of a product; a non-positive qty counts as 1
func (c *Cart) Add(productoID string, qty int) {
	if qty <= 0 {
		qty = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductoID == productoID {
			c.Items[i].Cantidad += qty
			return
		}
	}
	c.Items = append(c.Items, Item{ProductoID: productoID, Cantidad: qty})
}

// SetQuantity overwrites the quantity of a product; qty <= 0 removes it
func (c *Cart) SetQuantity(productoID string, qty int) {
	if qty <= 0 {
		c.Remove(productoID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductoID == productoID {
			c.Items[i].Cantidad = qty
			return
		}
	}
	c.Items = append(c.Items, Item{ProductoID: productoID, Cantidad: qty})
}

// Remove drops a product from the cart
func (c *Cart) Remove(productoID string) {
	for i := range c.Items {
		if c.Items[i].ProductoID == productoID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []Item{}
}

// Count returns the number of distinct products
func (c *Cart) Count() int {
	return len(c.Items)
}

// IsEmpty reports whether the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Line is a cart item priced against the catalog
type Line struct {
	Producto catalog.Product `json:"producto"`
	Cantidad int             `json:"cantidad"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Priced is the cart valued at current catalog prices
type Priced struct {
	Lines []Line          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Price values the cart against the catalog. Products no longer sold are skipped.
func (c *Cart) Price(cat *catalog.Catalog) Priced {
	out := Priced{Lines: make([]Line, 0, len(c.Items)), Total: decimal.Zero}
	for _, it := range c.Items {
		p, ok := cat.FindProduct(it.ProductoID)
		if !ok {
			continue
		}
		sub := p.Precio.Mul(decimal.NewFromInt(int64(it.Cantidad)))
		out.Lines = append(out.Lines, Line{Producto: p, Cantidad: it.Cantidad, Subtotal: sub})
		out.Total = out.Total.Add(sub)
	}
	return out
}

// Store keeps carts between requests. Get returns an empty cart for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}
