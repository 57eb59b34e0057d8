package handler

import (
	"github.com/belgrano/backend/internal/application/storefront"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the product catalog to shoppers
type CatalogHandler struct {
	BaseHandler
	catalog *storefront.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *storefront.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts returns the active products
// GET /catalogo/productos
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// GetProduct returns one product
// GET /catalogo/productos/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// ByCategory lists the products of a category
// GET /catalogo/categorias/:categoria
func (h *CatalogHandler) ByCategory(c *gin.Context) {
	products, err := h.catalog.ByCategory(c.Request.Context(), c.Param("categoria"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// ByBusiness lists the products sold by one business
// GET /catalogo/negocios/:negocio
func (h *CatalogHandler) ByBusiness(c *gin.Context) {
	products, err := h.catalog.ByBusiness(c.Request.Context(), c.Param("negocio"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Featured lists highlighted products
// GET /catalogo/destacados
func (h *CatalogHandler) Featured(c *gin.Context) {
	products, err := h.catalog.Featured(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Businesses lists the businesses
// GET /catalogo/negocios
func (h *CatalogHandler) Businesses(c *gin.Context) {
	negocios, err := h.catalog.Businesses(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, negocios)
}

// Categories lists the categories
// GET /catalogo/categorias
func (h *CatalogHandler) Categories(c *gin.Context) {
	categorias, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categorias)
}
