package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/belgrano/backend/internal/application/storefront"
	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/belgrano/backend/internal/domain/catalog"
	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/auth"
	"github.com/belgrano/backend/internal/infrastructure/event"
	"github.com/belgrano/backend/internal/infrastructure/persistence"
	"github.com/belgrano/backend/internal/infrastructure/persistence/models"
	"github.com/belgrano/backend/internal/interfaces/http/dto"
	"github.com/belgrano/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// openTestDB opens a private in-memory sqlite database with the given tables
func openTestDB(t *testing.T, tables ...any) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(tables...))
	return db
}

func newTicketService(t *testing.T) (*ticketing.TicketService, *gorm.DB) {
	t.Helper()
	db := openTestDB(t, models.TicketingModels()...)
	serializer := event.NewEventSerializer()
	event.RegisterTicketingEvents(serializer)
	scope := persistence.NewTicketingTransactionScope(db, event.NewOutboxPublisher(serializer, 0))
	svc := ticketing.NewTicketService(scope,
		persistence.NewGormTicketRepository(db),
		persistence.NewGormRegistroRepository(db),
		ticket.NewCourierPool(),
		zap.NewNop())
	return svc, db
}

type staticSource struct{ c *catalog.Catalog }

func (s staticSource) Load(context.Context) (*catalog.Catalog, error) { return s.c, nil }

func testCatalog() staticSource {
	return staticSource{c: catalog.New([]catalog.Product{
		{ID: "1", Nombre: "Arroz", Precio: decimal.NewFromInt(500), Categoria: "almacen", Negocio: "belgrano", Stock: 10, Activo: true},
		{ID: "2", Nombre: "Aceite", Precio: decimal.NewFromInt(800), Categoria: "almacen", Negocio: "belgrano", Stock: 10, Activo: true, Destacado: true},
	}, []catalog.Negocio{{ID: "belgrano", Nombre: "Belgrano Ahorro"}}, []catalog.Categoria{{ID: "almacen", Nombre: "Almacén"}})}
}

type storefrontFixture struct {
	db     *gorm.DB
	orders *storefront.OrderService
}

func newStorefrontFixture(t *testing.T) storefrontFixture {
	t.Helper()
	db := openTestDB(t, models.StorefrontModels()...)
	orders := storefront.NewOrderService(
		persistence.NewGormOrderRepository(db),
		persistence.NewGormTicketSyncRepository(db),
		persistence.NewGormCustomerRepository(db),
		testCatalog(),
		zap.NewNop())
	return storefrontFixture{db: db, orders: orders}
}

// withClaims stands in for the JWT middleware
func withClaims(claims *auth.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.JWTClaimsKey, claims)
		}
		c.Next()
	}
}

func staffClaims(id uint, username string, role identity.Role, repartidor string) *auth.Claims {
	return &auth.Claims{
		UserID:     id,
		Username:   username,
		Kind:       auth.SubjectStaff,
		Role:       string(role),
		Repartidor: repartidor,
	}
}

var (
	adminClaims = staffClaims(1, "admin", identity.RoleAdmin, "")
	flotaClaims = staffClaims(2, "repartidor1", identity.RoleFlota, "Repartidor1")
)

func send(r *gin.Engine, method, target string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// dataOf decodes the data member of a standard response into T
func dataOf[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	require.True(t, resp.Success, rec.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode[dto.Response](t, rec)
	require.NotNil(t, resp.Error, rec.Body.String())
	return resp.Error.Code
}
