package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/infrastructure/auth"
	"github.com/belgrano/backend/internal/infrastructure/config"
	"github.com/belgrano/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "router-test-key"

func init() {
	gin.SetMode(gin.TestMode)
}

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

func testJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:     "router-test-secret-at-least-32-chars",
		Issuer:     "belgrano-test",
		Expiration: 15 * time.Minute,
	})
}

func token(t *testing.T, svc *auth.JWTService, kind auth.SubjectKind, role identity.Role) string {
	t.Helper()
	tok, err := svc.GenerateToken(auth.TokenInput{
		UserID:   7,
		Username: "someone",
		Role:     string(role),
		Kind:     kind,
	})
	require.NoError(t, err)
	return tok.AccessToken
}

func do(engine *gin.Engine, method, target, bearer string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

// Route tests stop at the middleware; the handlers behind them have no
// services and are never reached.
func ticketsEngine(jwt *auth.JWTService, withOutbox bool) *gin.Engine {
	log := zap.NewNop()
	engine := NewEngine(EngineConfig{Logger: log, QuietPaths: []string{"/eventos"}})
	deps := TicketsDeps{
		JWT:            jwt,
		Blacklist:      auth.NewInMemoryTokenBlacklist(),
		APIKey:         testAPIKey,
		LoginRateLimit: 2,
		Logger:         log,
		System:         handler.NewSystemHandler("Belgrano Tickets", "test", pinger{}, log),
		Receive:        handler.NewTicketReceiveHandler(nil, log),
		Tickets:        handler.NewTicketHandler(nil),
		Staff:          handler.NewStaffHandler(nil),
		Fleet:          handler.NewFleetHandler(nil),
		Events:         handler.NewEventsHandler(nil, nil, log),
	}
	if withOutbox {
		deps.Outbox = handler.NewOutboxHandler(nil)
	}
	SetupTickets(engine, deps)
	return engine
}

func storefrontEngine(jwt *auth.JWTService, db pinger) *gin.Engine {
	log := zap.NewNop()
	engine := NewEngine(EngineConfig{Logger: log})
	SetupStorefront(engine, StorefrontDeps{
		JWT:            jwt,
		Blacklist:      auth.NewInMemoryTokenBlacklist(),
		APIKey:         testAPIKey,
		LoginRateLimit: 1,
		Logger:         log,
		System:         handler.NewSystemHandler("Belgrano Ahorro", "test", db, log),
		Catalog:        handler.NewCatalogHandler(nil),
		Cart:           handler.NewCartHandler(nil, false),
		Customers:      handler.NewCustomerHandler(nil),
		Pedidos:        handler.NewPedidoHandler(nil, nil),
		API:            handler.NewStorefrontAPIHandler(nil, nil, db, "test", log),
	})
	return engine
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("tickets", "/tickets")
		assert.Equal(t, "tickets", g.Name())
		assert.Equal(t, "/tickets", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
		g := NewDomainGroup("items", "/items").
			GET("", ok).
			POST("", ok).
			PUT("/:id", ok).
			DELETE("/:id", ok)
		g.RegisterRoutes(engine.Group(""))

		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/items"},
			{http.MethodPost, "/items"},
			{http.MethodPut, "/items/1"},
			{http.MethodDelete, "/items/1"},
		} {
			rec := do(engine, tc.method, tc.path, "", nil)
			assert.Equal(t, http.StatusNoContent, rec.Code, "%s %s", tc.method, tc.path)
		}
	})

	t.Run("subgroups inherit middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("api", "/api").
			Use(func(c *gin.Context) {
				c.Header("X-Guard", "on")
				c.Next()
			}).
			GET("/open", func(c *gin.Context) { c.String(http.StatusOK, "open") })
		g.Group("inner", "/inner").
			GET("/deep", func(c *gin.Context) { c.String(http.StatusOK, "deep") })
		g.RegisterRoutes(engine.Group(""))

		rec := do(engine, http.MethodGet, "/api/inner/deep", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "deep", rec.Body.String())
		assert.Equal(t, "on", rec.Header().Get("X-Guard"))
	})

	t.Run("subgroup middleware stays local", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("api", "/api").
			GET("/open", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.Group("closed", "").
			Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }).
			GET("/closed", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(engine.Group(""))

		assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/api/open", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, do(engine, http.MethodGet, "/api/closed", "", nil).Code)
	})
}

func TestRouter_BasePath(t *testing.T) {
	engine := gin.New()
	a := NewDomainGroup("a", "/a").GET("", func(c *gin.Context) { c.String(http.StatusOK, "a") })
	b := NewDomainGroup("b", "/b").GET("", func(c *gin.Context) { c.String(http.StatusOK, "b") })

	NewRouter(engine, WithBasePath("/api/v1")).Register(a).Register(b).Setup()

	assert.Equal(t, "a", do(engine, http.MethodGet, "/api/v1/a", "", nil).Body.String())
	assert.Equal(t, "b", do(engine, http.MethodGet, "/api/v1/b", "", nil).Body.String())
	assert.Equal(t, http.StatusNotFound, do(engine, http.MethodGet, "/a", "", nil).Code)
}

func TestSetupTickets_Security(t *testing.T) {
	jwt := testJWT()
	engine := ticketsEngine(jwt, true)
	admin := token(t, jwt, auth.SubjectStaff, identity.RoleAdmin)
	flota := token(t, jwt, auth.SubjectStaff, identity.RoleFlota)
	customer := token(t, jwt, auth.SubjectCustomer, "")

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		header map[string]string
		want   int
	}{
		{"health at root", http.MethodGet, "/", "", nil, http.StatusOK},
		{"receive without key", http.MethodPost, "/api/tickets", "", nil, http.StatusUnauthorized},
		{"receive alias with wrong key", http.MethodPost, "/api/tickets/recibir", "", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"panel without token", http.MethodGet, "/panel", "", nil, http.StatusUnauthorized},
		{"panel with customer token", http.MethodGet, "/panel", customer, nil, http.StatusUnauthorized},
		{"users as flota", http.MethodGet, "/usuarios", flota, nil, http.StatusForbidden},
		{"fleet as flota", http.MethodGet, "/flota", flota, nil, http.StatusForbidden},
		{"reports as flota", http.MethodGet, "/reportes", flota, nil, http.StatusForbidden},
		{"outbox as flota", http.MethodGet, "/admin/outbox/stats", flota, nil, http.StatusForbidden},
		{"delete ticket without token", http.MethodDelete, "/tickets/1", "", nil, http.StatusUnauthorized},
		{"bad ticket id as admin", http.MethodGet, "/tickets/abc", admin, nil, http.StatusBadRequest},
		{"unknown outbox id as admin", http.MethodGet, "/admin/outbox/not-a-uuid", admin, nil, http.StatusBadRequest},
		{"stream without token", http.MethodGet, "/eventos", "", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(engine, tt.method, tt.path, tt.bearer, tt.header)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestSetupTickets_APIKeyBody(t *testing.T) {
	engine := ticketsEngine(testJWT(), false)
	rec := do(engine, http.MethodPost, "/api/tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"API key requerida"}`, rec.Body.String())
}

func TestSetupTickets_OutboxOptional(t *testing.T) {
	jwt := testJWT()
	engine := ticketsEngine(jwt, false)
	rec := do(engine, http.MethodGet, "/admin/outbox/stats", token(t, jwt, auth.SubjectStaff, identity.RoleAdmin), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupTickets_LoginRateLimited(t *testing.T) {
	engine := ticketsEngine(testJWT(), false)
	// empty credentials fail validation, but still count against the limit
	for i := 0; i < 2; i++ {
		rec := do(engine, http.MethodPost, "/auth/login", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := do(engine, http.MethodPost, "/auth/login", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSetupStorefront_Routes(t *testing.T) {
	jwt := testJWT()
	engine := storefrontEngine(jwt, pinger{})
	staff := token(t, jwt, auth.SubjectStaff, identity.RoleAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		header map[string]string
		want   int
	}{
		{"health", http.MethodGet, "/health", "", nil, http.StatusOK},
		{"api health without key", http.MethodGet, "/api/v1/health", "", nil, http.StatusOK},
		{"api products without key", http.MethodGet, "/api/v1/productos", "", nil, http.StatusUnauthorized},
		{"api estado without key", http.MethodPut, "/api/v1/pedidos/PED-1/estado", "", nil, http.StatusUnauthorized},
		{"api sync with key and no tickets", http.MethodPost, "/api/v1/sync/tickets", "", map[string]string{"X-API-Key": testAPIKey}, http.StatusBadRequest},
		{"profile without token", http.MethodGet, "/perfil", "", nil, http.StatusUnauthorized},
		{"orders with staff token", http.MethodGet, "/pedidos/mios", staff, nil, http.StatusUnauthorized},
		{"checkout anonymous", http.MethodPost, "/checkout", "", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(engine, tt.method, tt.path, tt.bearer, tt.header)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestSetupStorefront_NotFound(t *testing.T) {
	engine := storefrontEngine(testJWT(), pinger{})

	rec := do(engine, http.MethodGet, "/api/v1/nada", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Endpoint no encontrado", body["error"])

	rec = do(engine, http.MethodGet, "/nada", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")
}

func TestSetupStorefront_HealthDegraded(t *testing.T) {
	engine := storefrontEngine(testJWT(), pinger{err: errors.New("down")})

	rec := do(engine, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(engine, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unhealthy"`)
}

func TestNewEngine_RequestID(t *testing.T) {
	engine := NewEngine(EngineConfig{})
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := do(engine, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
