package catalog

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a sellable item of the catalog
type Product struct {
	ID          string          `json:"id"`
	Nombre      string          `json:"nombre"`
	Precio      decimal.Decimal `json:"precio"`
	Categoria   string          `json:"categoria"`
	Negocio     string          `json:"negocio"`
	Descripcion string          `json:"descripcion,omitempty"`
	Imagen      string          `json:"imagen,omitempty"`
	Stock       int             `json:"stock"`
	Destacado   bool            `json:"destacado"`
	Activo      bool            `json:"activo"`
}

// Negocio is a store that sells through the platform
type Negocio struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
	Imagen      string `json:"imagen,omitempty"`
}

// Categoria groups products
type Categoria struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
}

// Catalog is an immutable snapshot of the product document
type Catalog struct {
	Products   []Product
	Negocios   []Negocio
	Categorias []Categoria
	byID       map[string]int
}

// New indexes a catalog snapshot
func New(products []Product, negocios []Negocio, categorias []Categoria) *Catalog {
	c := &Catalog{
		Products:   products,
		Negocios:   negocios,
		Categorias: categorias,
		byID:       make(map[string]int, len(products)),
	}
	for i, p := range products {
		c.byID[p.ID] = i
	}
	return c
}

// Active returns the products that can be sold
func (c *Catalog) Active() []Product {
	return c.filter(func(Product) bool { return true })
}

// FindProduct looks up an active product by ID
func (c *Catalog) FindProduct(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok || !c.Products[i].Activo {
		return Product{}, false
	}
	return c.Products[i], true
}

// ByCategoria returns active products of a category (case-insensitive)
func (c *Catalog) ByCategoria(categoria string) []Product {
	return c.filter(func(p Product) bool { return strings.EqualFold(p.Categoria, categoria) })
}

// ByNegocio returns active products sold by a store
func (c *Catalog) ByNegocio(negocio string) []Product {
	return c.filter(func(p Product) bool { return strings.EqualFold(p.Negocio, negocio) })
}

// Destacados returns featured active products
func (c *Catalog) Destacados() []Product {
	return c.filter(func(p Product) bool { return p.Destacado })
}

// FindNegocio looks up a store by ID
func (c *Catalog) FindNegocio(id string) (Negocio, bool) {
	for _, n := range c.Negocios {
		if n.ID == id {
			return n, true
		}
	}
	return Negocio{}, false
}

func (c *Catalog) filter(keep func(Product) bool) []Product {
	out := make([]Product, 0)
	for _, p := range c.Products {
		if p.Activo && keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Source loads the current catalog document
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}
