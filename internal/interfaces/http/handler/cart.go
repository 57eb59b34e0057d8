package handler

import (
	"net/http"
	"time"

	"github.com/belgrano/backend/internal/application/storefront"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartCookie names the cookie that carries the cart id
const CartCookie = "carrito_id"

const cartCookieMaxAge = 30 * 24 * time.Hour

// CartHandler handles the shopper's cart
type CartHandler struct {
	BaseHandler
	carts  *storefront.CartService
	secure bool
}

// NewCartHandler creates a new cart handler. secure marks the cookie
// HTTPS-only.
func NewCartHandler(carts *storefront.CartService, secure bool) *CartHandler {
	return &CartHandler{carts: carts, secure: secure}
}

// AddItemRequest puts a product in the cart
type AddItemRequest struct {
	ProductoID string `json:"producto_id" binding:"required"`
	Cantidad   int    `json:"cantidad" binding:"omitempty,min=1,max=999"`
}

// SetQuantityRequest replaces the quantity of a product; 0 removes it
type SetQuantityRequest struct {
	Cantidad int `json:"cantidad" binding:"min=0,max=999"`
}

// cartID returns the cart of this browser, issuing a new cookie when absent
func (h *CartHandler) cartID(c *gin.Context) string {
	if id, err := c.Cookie(CartCookie); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CartCookie, id, int(cartCookieMaxAge.Seconds()), "/", "", h.secure, true)
	return id
}

// View returns the priced cart
// GET /carrito
func (h *CartHandler) View(c *gin.Context) {
	view, err := h.carts.View(c.Request.Context(), h.cartID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddItem adds a product
// POST /carrito/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.carts.Add(c.Request.Context(), h.cartID(c), req.ProductoID, req.Cantidad)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// SetQuantity changes the quantity of a product
// PUT /carrito/items/:producto_id
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.carts.SetQuantity(c.Request.Context(), h.cartID(c), c.Param("producto_id"), req.Cantidad)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveItem drops a product
// DELETE /carrito/items/:producto_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	view, err := h.carts.Remove(c.Request.Context(), h.cartID(c), c.Param("producto_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Clear empties the cart
// DELETE /carrito
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), h.cartID(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
