package storefront

import (
	"context"

	"github.com/belgrano/backend/internal/domain/catalog"
	"github.com/belgrano/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CatalogService serves the product catalog
type CatalogService struct {
	source catalog.Source
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(source catalog.Source, logger *zap.Logger) *CatalogService {
	return &CatalogService{source: source, logger: logger}
}

func (s *CatalogService) load(ctx context.Context) (*catalog.Catalog, error) {
	cat, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load catalog", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeCatalogUnavailable, "Catalog is not available")
	}
	return cat, nil
}

// List returns every active product
func (s *CatalogService) List(ctx context.Context) ([]catalog.Product, error) {
	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Active(), nil
}

// Get returns one active product
func (s *CatalogService) Get(ctx context.Context, id string) (*catalog.Product, error) {
	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := cat.FindProduct(id)
	if !ok {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Producto no encontrado")
	}
	return &p, nil
}

// ByCategory returns active products of a category
func (s *CatalogService) ByCategory(ctx context.Context, categoria string) ([]catalog.Product, error) {
	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return cat.ByCategoria(categoria), nil
}

// ByBusiness returns active products sold by one store
func (s *CatalogService) ByBusiness(ctx context.Context, negocio string) ([]catalog.Product, error) {
	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return cat.ByNegocio(negocio), nil
}

// Featured returns the featured products
func (s *CatalogService) Featured(ctx context.Context) ([]catalog.Product, error) {
	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Destacados(), nil
}

// Businesses returns the stores listed in the catalog
func (s *CatalogService) Businesses(ctx context.Context) ([]catalog.Negocio, error) {
	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Negocios, nil
}

// Categories returns the catalog categories
func (s *CatalogService) Categories(ctx context.Context) ([]catalog.Categoria, error) {
	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Categorias, nil
}
