package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/belgrano/backend/internal/application/storefront"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

func storefrontAPI(t *testing.T, fx storefrontFixture, db Pinger) *gin.Engine {
	t.Helper()
	h := NewStorefrontAPIHandler(storefront.NewCatalogService(testCatalog(), zap.NewNop()), fx.orders, db, "test", zap.NewNop())
	r := gin.New()
	r.GET("/api/v1/health", h.Health)
	r.GET("/api/v1/productos", h.Productos)
	r.GET("/api/v1/productos/:id", h.Producto)
	r.GET("/api/v1/productos/categoria/:categoria", h.ProductosPorCategoria)
	r.GET("/api/v1/pedidos", h.Pedidos)
	r.GET("/api/v1/pedidos/:numero", h.Pedido)
	r.PUT("/api/v1/pedidos/:numero/estado", h.ActualizarEstado)
	r.GET("/api/v1/stats", h.Stats)
	r.POST("/api/v1/sync/tickets", h.SyncTickets)
	r.GET("/api/v1/sync/tickets", h.SyncedTickets)
	r.NoRoute(h.NotFound)
	return r
}

func seedPedido(t *testing.T, fx storefrontFixture, numero string) {
	t.Helper()
	p, err := order.NewPedido(order.NewPedidoParams{
		Numero:    numero,
		UsuarioID: 1,
		Items: []order.Item{
			{ProductoID: "1", Nombre: "Arroz", Cantidad: 2, PrecioUnitario: decimal.NewFromInt(500)},
			{ProductoID: "2", Nombre: "Aceite", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(800)},
		},
		DireccionEntrega: "Belgrano 123",
	})
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormOrderRepository(fx.db).Save(context.Background(), p))
}

func TestStorefrontAPI_ActualizarEstado(t *testing.T) {
	fx := newStorefrontFixture(t)
	seedPedido(t, fx, "PED-20261015-ABCD1234")
	r := storefrontAPI(t, fx, stubPinger{})
	path := "/api/v1/pedidos/PED-20261015-ABCD1234/estado"

	rec := send(r, http.MethodPut, path, map[string]string{"estado": "en-camino"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "en-camino", body["estado"])
	assert.Equal(t, "PED-20261015-ABCD1234", body["numero_pedido"])
	assert.NotEmpty(t, body["timestamp"])

	// a delayed en-preparacion arriving after en-camino must not rewind the order
	rec = send(r, http.MethodPut, path, map[string]string{"estado": "en-preparacion"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// ticketing reports entregado; the order closes as completado
	rec = send(r, http.MethodPut, path, map[string]string{"estado": "entregado"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "completado", decode[map[string]any](t, rec)["estado"])

	rec = send(r, http.MethodPut, path, map[string]string{"estado": "completado"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "re-applying the final estado is a no-op")

	rec = send(r, http.MethodPut, path, map[string]string{"estado": "cancelado"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "error", decode[map[string]any](t, rec)["status"])
}

func TestStorefrontAPI_ActualizarEstadoErrors(t *testing.T) {
	fx := newStorefrontFixture(t)
	seedPedido(t, fx, "PED-20261015-ABCD1234")
	r := storefrontAPI(t, fx, stubPinger{})

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"malformed", "/api/v1/pedidos/PED-20261015-ABCD1234/estado", `{"estado":`, http.StatusBadRequest},
		{"empty estado", "/api/v1/pedidos/PED-20261015-ABCD1234/estado", map[string]string{"estado": ""}, http.StatusBadRequest},
		{"unknown estado", "/api/v1/pedidos/PED-20261015-ABCD1234/estado", map[string]string{"estado": "volando"}, http.StatusBadRequest},
		{"unknown order", "/api/v1/pedidos/PED-00000000-NOPE0000/estado", map[string]string{"estado": "en-camino"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(r, http.MethodPut, tt.path, tt.body, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			body := decode[map[string]any](t, rec)
			assert.Equal(t, "error", body["status"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestStorefrontAPI_PedidosAndStats(t *testing.T) {
	fx := newStorefrontFixture(t)
	seedPedido(t, fx, "PED-20261015-AAAA0001")
	seedPedido(t, fx, "PED-20261015-AAAA0002")
	r := storefrontAPI(t, fx, stubPinger{})

	rec := send(r, http.MethodGet, "/api/v1/pedidos", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["total"])

	rec = send(r, http.MethodGet, "/api/v1/pedidos/PED-20261015-AAAA0001", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pedido := decode[struct {
		Pedido storefront.OrderDTO `json:"pedido"`
	}](t, rec).Pedido
	assert.True(t, decimal.NewFromInt(1800).Equal(pedido.Total))
	assert.Len(t, pedido.Items, 2)
	raw := decode[map[string]any](t, rec)["pedido"].(map[string]any)
	assert.Equal(t, float64(1800), raw["total"], "totals are JSON numbers")

	rec = send(r, http.MethodPut, "/api/v1/pedidos/PED-20261015-AAAA0002/estado", map[string]string{"estado": "completado"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = send(r, http.MethodGet, "/api/v1/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[struct {
		Stats storefront.StatsDTO `json:"stats"`
	}](t, rec).Stats
	assert.Equal(t, int64(2), stats.TotalPedidos)
	assert.Equal(t, int64(2), stats.TotalProductos)
	assert.Equal(t, int64(1), stats.PedidosPorEstado["completado"])
	assert.True(t, decimal.NewFromInt(1800).Equal(stats.TotalVentas), "only completed orders count as sales")
}

func TestStorefrontAPI_Productos(t *testing.T) {
	r := storefrontAPI(t, newStorefrontFixture(t), stubPinger{})

	rec := send(r, http.MethodGet, "/api/v1/productos", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["total"])

	rec = send(r, http.MethodGet, "/api/v1/productos/categoria/almacen", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "almacen", decode[map[string]any](t, rec)["categoria"])

	rec = send(r, http.MethodGet, "/api/v1/productos/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStorefrontAPI_SyncTickets(t *testing.T) {
	r := storefrontAPI(t, newStorefrontFixture(t), stubPinger{})

	rec := send(r, http.MethodPost, "/api/v1/sync/tickets", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Datos de tickets requeridos", decode[map[string]any](t, rec)["error"])

	snap := map[string]any{
		"numero_pedido": "PED-20261015-AAAA0001",
		"ticket_id":     4,
		"estado":        "en-camino",
		"repartidor":    "Repartidor2",
	}
	rec = send(r, http.MethodPost, "/api/v1/sync/tickets", map[string]any{"tickets": []any{snap}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["total"])

	// a second push of the same numero replaces the snapshot
	snap["estado"] = "entregado"
	rec = send(r, http.MethodPost, "/api/v1/sync/tickets", map[string]any{"tickets": []any{snap}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = send(r, http.MethodGet, "/api/v1/sync/tickets", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	synced := decode[struct {
		Total   int                `json:"total"`
		Tickets []order.TicketSync `json:"tickets"`
	}](t, rec)
	require.Equal(t, 1, synced.Total)
	assert.Equal(t, "entregado", synced.Tickets[0].Estado)
	assert.Equal(t, "Repartidor2", synced.Tickets[0].Repartidor)
}

func TestStorefrontAPI_HealthAndNotFound(t *testing.T) {
	fx := newStorefrontFixture(t)

	rec := send(storefrontAPI(t, fx, stubPinger{}), http.MethodGet, "/api/v1/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "Belgrano Ahorro API", body["service"])

	rec = send(storefrontAPI(t, fx, stubPinger{err: errors.New("gone")}), http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decode[map[string]any](t, rec)["status"])

	rec = send(storefrontAPI(t, fx, stubPinger{}), http.MethodGet, "/api/v1/nada", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Endpoint no encontrado", decode[map[string]any](t, rec)["error"])
}
