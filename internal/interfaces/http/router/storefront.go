package router

import (
	"net/http"
	"strings"

	"github.com/belgrano/backend/internal/infrastructure/auth"
	"github.com/belgrano/backend/internal/interfaces/http/dto"
	"github.com/belgrano/backend/internal/interfaces/http/handler"
	"github.com/belgrano/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StorefrontAPIPrefix is where the service-to-service API lives
const StorefrontAPIPrefix = "/api/v1"

// StorefrontDeps are the handlers and security settings of the storefront
type StorefrontDeps struct {
	JWT            *auth.JWTService
	Blacklist      auth.TokenBlacklist
	APIKey         string
	LoginRateLimit int
	Logger         *zap.Logger

	System    *handler.SystemHandler
	Catalog   *handler.CatalogHandler
	Cart      *handler.CartHandler
	Customers *handler.CustomerHandler
	Pedidos   *handler.PedidoHandler
	API       *handler.StorefrontAPIHandler
	// Outbox is optional; nil leaves the outbox admin endpoints unmounted
	Outbox *handler.OutboxHandler
}

// SetupStorefront mounts every storefront route on engine
func SetupStorefront(engine *gin.Engine, d StorefrontDeps) {
	jwtCfg := middleware.JWTMiddlewareConfig{
		JWTService:     d.JWT,
		TokenBlacklist: d.Blacklist,
		Kind:           auth.SubjectCustomer,
		Logger:         d.Logger,
	}
	requireCustomer := middleware.JWTAuthMiddleware(jwtCfg)
	jwtCfg.Optional = true
	optionalCustomer := middleware.JWTAuthMiddleware(jwtCfg)
	limitLogin := loginLimiter(d.LoginRateLimit)

	engine.GET("/health", d.System.Health)

	catalog := NewDomainGroup("catalog", "/catalogo").
		GET("/productos", d.Catalog.ListProducts).
		GET("/productos/:id", d.Catalog.GetProduct).
		GET("/categorias", d.Catalog.Categories).
		GET("/categorias/:categoria", d.Catalog.ByCategory).
		GET("/negocios", d.Catalog.Businesses).
		GET("/negocios/:negocio", d.Catalog.ByBusiness).
		GET("/destacados", d.Catalog.Featured)

	cart := NewDomainGroup("cart", "/carrito").
		GET("", d.Cart.View).
		DELETE("", d.Cart.Clear).
		POST("/items", d.Cart.AddItem).
		PUT("/items/:producto_id", d.Cart.SetQuantity).
		DELETE("/items/:producto_id", d.Cart.RemoveItem)

	session := NewDomainGroup("auth", "/auth").
		POST("/register", limitLogin, d.Customers.Register).
		POST("/login", limitLogin, d.Customers.Login).
		POST("/logout", requireCustomer, d.Customers.Logout)

	profile := NewDomainGroup("profile", "/perfil").
		Use(requireCustomer).
		GET("", d.Customers.Profile).
		PUT("", d.Customers.UpdateProfile).
		POST("/password", d.Customers.ChangePassword)

	// checkout answers its own 401 so the shopper gets a readable message
	checkout := NewDomainGroup("checkout", "/checkout").
		Use(optionalCustomer).
		POST("", d.Pedidos.Checkout)

	orders := NewDomainGroup("orders", "/pedidos").
		Use(requireCustomer).
		GET("/mios", d.Pedidos.ListMine).
		GET("/mios/:numero", d.Pedidos.GetMine).
		POST("/:id/repetir", d.Pedidos.Repeat)

	NewRouter(engine).
		Register(catalog, cart, session, profile, checkout, orders, storefrontAPI(d)).
		Setup()

	engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, StorefrontAPIPrefix+"/") {
			d.API.NotFound(c)
			return
		}
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Página no encontrada", middleware.GetRequestID(c)))
	})
}

func storefrontAPI(d StorefrontDeps) *DomainGroup {
	api := NewDomainGroup("api", StorefrontAPIPrefix).
		GET("/health", d.API.Health)

	keyed := api.Group("integration", "").
		Use(middleware.APIKey(d.APIKey)).
		GET("/productos", d.API.Productos).
		GET("/productos/:id", d.API.Producto).
		GET("/productos/categoria/:categoria", d.API.ProductosPorCategoria).
		GET("/pedidos", d.API.Pedidos).
		GET("/pedidos/:numero", d.API.Pedido).
		PUT("/pedidos/:numero/estado", d.API.ActualizarEstado).
		GET("/stats", d.API.Stats).
		POST("/sync/tickets", d.API.SyncTickets).
		GET("/sync/tickets", d.API.SyncedTickets)

	if d.Outbox != nil {
		mountOutbox(keyed.Group("outbox", "/outbox"), d.Outbox)
	}
	return api
}

// mountOutbox registers the delivery queue endpoints on g
func mountOutbox(g *DomainGroup, h *handler.OutboxHandler) {
	g.GET("/stats", h.GetStats).
		GET("/dead", h.GetDeadLetterEntries).
		POST("/dead/retry-all", h.RetryAllDeadEntries).
		GET("/:id", h.GetEntry).
		POST("/:id/retry", h.RetryDeadEntry)
}
