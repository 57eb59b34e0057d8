package handler

import (
	"github.com/belgrano/backend/internal/application/storefront"
	"github.com/gin-gonic/gin"
)

// PedidoHandler handles checkout and the shopper's order history
type PedidoHandler struct {
	BaseHandler
	checkout *storefront.CheckoutService
	orders   *storefront.OrderService
}

// NewPedidoHandler creates a new order handler
func NewPedidoHandler(checkout *storefront.CheckoutService, orders *storefront.OrderService) *PedidoHandler {
	return &PedidoHandler{checkout: checkout, orders: orders}
}

// Checkout turns the cart into an order. The ticket is created
// asynchronously; the response does not wait for it.
// POST /checkout
func (h *PedidoHandler) Checkout(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		h.Unauthorized(c, "Debe iniciar sesión para finalizar la compra")
		return
	}
	var req storefront.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	cartID, err := c.Cookie(CartCookie)
	if err != nil || cartID == "" {
		h.BadRequest(c, "El carrito está vacío")
		return
	}
	req.UsuarioID = id
	req.CartID = cartID

	pedido, err := h.checkout.Checkout(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, pedido)
}

// ListMine lists the shopper's orders
// GET /pedidos/mios
func (h *PedidoHandler) ListMine(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	pedidos, err := h.orders.ListMine(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pedidos)
}

// GetMine returns one of the shopper's orders
// GET /pedidos/mios/:numero
func (h *PedidoHandler) GetMine(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	pedido, err := h.orders.GetMine(c.Request.Context(), id, c.Param("numero"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pedido)
}

// Repeat places a past order again
// POST /pedidos/:id/repetir
func (h *PedidoHandler) Repeat(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	pedidoID, ok := paramID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	pedido, err := h.checkout.Repeat(c.Request.Context(), id, pedidoID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, pedido)
}
