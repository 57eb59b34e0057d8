package handler

import (
	"net/http"
	"time"

	"github.com/belgrano/backend/internal/application/storefront"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the database answers
type Pinger interface {
	Ping() error
}

// StorefrontAPIHandler serves /api/v1, the service-to-service API the
// ticketing side calls. It answers in the flat {status, ...} shape that
// side parses instead of the dto envelope.
type StorefrontAPIHandler struct {
	catalog *storefront.CatalogService
	orders  *storefront.OrderService
	db      Pinger
	version string
	logger  *zap.Logger
}

// NewStorefrontAPIHandler creates the /api/v1 handler
func NewStorefrontAPIHandler(catalog *storefront.CatalogService, orders *storefront.OrderService, db Pinger, version string, logger *zap.Logger) *StorefrontAPIHandler {
	return &StorefrontAPIHandler{catalog: catalog, orders: orders, db: db, version: version, logger: logger}
}

// EstadoRequest sets the estado of an order
type EstadoRequest struct {
	Estado string `json:"estado"`
}

// SyncTicketsRequest is a batch of ticket snapshots
type SyncTicketsRequest struct {
	Tickets []order.TicketSync `json:"tickets"`
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}

func (h *StorefrontAPIHandler) ok(c *gin.Context, body gin.H) {
	body["status"] = "success"
	body["timestamp"] = timestamp()
	c.JSON(http.StatusOK, body)
}

func (h *StorefrontAPIHandler) fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": "error", "error": message, "timestamp": timestamp()})
}

// failErr maps a domain error onto the flat shape. 5xx details stay in the log.
func (h *StorefrontAPIHandler) failErr(c *gin.Context, err error) {
	code := dto.NormalizeErrorCode(shared.CodeOf(err))
	status := dto.GetHTTPStatus(code)
	if code == "" {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Storefront API request failed", zap.String("path", c.FullPath()), zap.Error(err))
		h.fail(c, status, "Error interno del servidor")
		return
	}
	h.fail(c, status, err.Error())
}

// Productos lists active products
// GET /api/v1/productos
func (h *StorefrontAPIHandler) Productos(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.failErr(c, err)
		return
	}
	h.ok(c, gin.H{"total": len(products), "productos": products})
}

// Producto returns one product
// GET /api/v1/productos/:id
func (h *StorefrontAPIHandler) Producto(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	h.ok(c, gin.H{"producto": p})
}

// ProductosPorCategoria lists the products of a category
// GET /api/v1/productos/categoria/:categoria
func (h *StorefrontAPIHandler) ProductosPorCategoria(c *gin.Context) {
	categoria := c.Param("categoria")
	products, err := h.catalog.ByCategory(c.Request.Context(), categoria)
	if err != nil {
		h.failErr(c, err)
		return
	}
	h.ok(c, gin.H{"categoria": categoria, "total": len(products), "productos": products})
}

// Pedidos lists the latest orders with their customers
// GET /api/v1/pedidos
func (h *StorefrontAPIHandler) Pedidos(c *gin.Context) {
	pedidos, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.failErr(c, err)
		return
	}
	h.ok(c, gin.H{"total": len(pedidos), "pedidos": pedidos})
}

// Pedido returns one order
// GET /api/v1/pedidos/:numero
func (h *StorefrontAPIHandler) Pedido(c *gin.Context) {
	p, err := h.orders.GetByNumero(c.Request.Context(), c.Param("numero"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	h.ok(c, gin.H{"pedido": p})
}

// ActualizarEstado applies an estado pushed by ticketing. A closed order
// answers 409 so the sender stops retrying.
// PUT /api/v1/pedidos/:numero/estado
func (h *StorefrontAPIHandler) ActualizarEstado(c *gin.Context) {
	var req EstadoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Estado requerido")
		return
	}
	numero := c.Param("numero")
	p, err := h.orders.UpdateEstado(c.Request.Context(), numero, req.Estado)
	if err != nil {
		if shared.CodeOf(err) == shared.ErrInvalidState.Code {
			h.fail(c, http.StatusConflict, err.Error())
			return
		}
		h.failErr(c, err)
		return
	}
	h.ok(c, gin.H{
		"message":       "Estado actualizado a " + p.Estado,
		"numero_pedido": numero,
		"estado":        p.Estado,
	})
}

// Stats summarizes storefront activity
// GET /api/v1/stats
func (h *StorefrontAPIHandler) Stats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		h.failErr(c, err)
		return
	}
	h.ok(c, gin.H{"stats": stats})
}

// Health reports API and database status; it needs no API key
// GET /api/v1/health
func (h *StorefrontAPIHandler) Health(c *gin.Context) {
	body := gin.H{
		"service":   "Belgrano Ahorro API",
		"version":   h.version,
		"timestamp": timestamp(),
	}
	if err := h.db.Ping(); err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		body["status"] = "unhealthy"
		body["error"] = "database unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "healthy"
	body["database"] = "connected"
	c.JSON(http.StatusOK, body)
}

// SyncTickets stores ticket snapshots pushed by ticketing
// POST /api/v1/sync/tickets
func (h *StorefrontAPIHandler) SyncTickets(c *gin.Context) {
	var req SyncTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Tickets == nil {
		h.fail(c, http.StatusBadRequest, "Datos de tickets requeridos")
		return
	}
	n, err := h.orders.SyncTickets(c.Request.Context(), req.Tickets)
	if err != nil {
		h.failErr(c, err)
		return
	}
	h.ok(c, gin.H{"message": "tickets sincronizados", "total": n})
}

// SyncedTickets lists the stored ticket snapshots
// GET /api/v1/sync/tickets
func (h *StorefrontAPIHandler) SyncedTickets(c *gin.Context) {
	items, err := h.orders.TicketSnapshots(c.Request.Context())
	if err != nil {
		h.failErr(c, err)
		return
	}
	h.ok(c, gin.H{"total": len(items), "tickets": items})
}

// NotFound answers unknown /api/v1 paths
func (h *StorefrontAPIHandler) NotFound(c *gin.Context) {
	h.fail(c, http.StatusNotFound, "Endpoint no encontrado")
}
