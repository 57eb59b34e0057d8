package router

import (
	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/infrastructure/auth"
	"github.com/belgrano/backend/internal/interfaces/http/handler"
	"github.com/belgrano/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TicketsDeps are the handlers and security settings of the ticketing server
type TicketsDeps struct {
	JWT            *auth.JWTService
	Blacklist      auth.TokenBlacklist
	APIKey         string
	LoginRateLimit int
	Logger         *zap.Logger

	System  *handler.SystemHandler
	Receive *handler.TicketReceiveHandler
	Tickets *handler.TicketHandler
	Staff   *handler.StaffHandler
	Fleet   *handler.FleetHandler
	Events  *handler.EventsHandler
	// Outbox is optional; nil leaves the outbox admin endpoints unmounted
	Outbox *handler.OutboxHandler
}

// SetupTickets mounts every ticketing route on engine
func SetupTickets(engine *gin.Engine, d TicketsDeps) {
	jwtCfg := middleware.JWTMiddlewareConfig{
		JWTService:     d.JWT,
		TokenBlacklist: d.Blacklist,
		Kind:           auth.SubjectStaff,
		Logger:         d.Logger,
	}
	requireStaff := middleware.JWTAuthMiddleware(jwtCfg)
	jwtCfg.AllowQueryToken = true
	streamAuth := middleware.JWTAuthMiddleware(jwtCfg)
	can := func(c identity.Capability) gin.HandlerFunc {
		return middleware.RequireCapability(c, d.Logger)
	}

	engine.GET("/", d.System.Health)
	engine.GET("/health", d.System.Health)

	inbound := NewDomainGroup("inbound", "/api/tickets").
		Use(middleware.APIKey(d.APIKey)).
		POST("", d.Receive.Receive).
		POST("/recibir", d.Receive.Receive)

	session := NewDomainGroup("auth", "/auth").
		POST("/login", loginLimiter(d.LoginRateLimit), d.Staff.Login).
		POST("/logout", requireStaff, d.Staff.Logout).
		GET("/me", requireStaff, d.Staff.Me)

	dashboard := NewDomainGroup("dashboard", "").
		Use(requireStaff).
		GET("/panel", d.Tickets.Panel).
		GET("/registro", d.Tickets.Registro).
		GET("/flota", can(identity.CapViewFleet), d.Fleet.Couriers).
		GET("/reportes", can(identity.CapViewReports), d.Fleet.Report).
		POST("/password", d.Staff.ChangePassword)

	tickets := NewDomainGroup("tickets", "/tickets").
		Use(requireStaff).
		GET("/:id", d.Tickets.Detail).
		POST("/:id/estado", d.Tickets.Update).
		POST("/:id/repartidor", d.Tickets.AssignCourier).
		POST("/:id/archivar", d.Tickets.Archive).
		DELETE("/:id", d.Tickets.Delete).
		GET("/:id/remito.pdf", d.Tickets.Remito)

	events := NewDomainGroup("events", "/eventos").
		Use(streamAuth).
		GET("", d.Events.Stream)

	users := NewDomainGroup("users", "/usuarios").
		Use(requireStaff, can(identity.CapManageUsers)).
		GET("", d.Staff.List).
		POST("", d.Staff.Create).
		PUT("/:id", d.Staff.Update).
		DELETE("/:id", d.Staff.Delete)

	r := NewRouter(engine).Register(inbound, session, dashboard, tickets, events, users)
	if d.Outbox != nil {
		admin := NewDomainGroup("outbox", "/admin/outbox").
			Use(requireStaff, can(identity.CapManageUsers))
		mountOutbox(admin, d.Outbox)
		r.Register(admin)
	}
	r.Setup()
}
