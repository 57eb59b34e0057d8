package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/auth"
	"github.com/belgrano/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dashboard(svc *ticketing.TicketService, claims *auth.Claims) *gin.Engine {
	h := NewTicketHandler(svc)
	r := gin.New()
	r.Use(withClaims(claims))
	r.GET("/panel", h.Panel)
	r.GET("/registro", h.Registro)
	r.GET("/tickets/:id", h.Detail)
	r.POST("/tickets/:id/estado", h.Update)
	r.POST("/tickets/:id/repartidor", h.AssignCourier)
	r.POST("/tickets/:id/archivar", h.Archive)
	r.DELETE("/tickets/:id", h.Delete)
	r.GET("/tickets/:id/remito.pdf", h.Remito)
	return r
}

// seedTicket receives a ticket and hands it to repartidor
func seedTicket(t *testing.T, svc *ticketing.TicketService, numero, repartidor string) uint {
	t.Helper()
	total := decimal.NewFromInt(1800)
	res, err := svc.Receive(context.Background(), ticketing.ReceiveInput{
		Numero:        numero,
		ClienteNombre: "Ana Pérez",
		Productos:     []ticket.Producto{{Nombre: "Arroz", Cantidad: 1}},
		Total:         &total,
	})
	require.NoError(t, err)
	admin := ticketing.Actor{UserID: 1, Username: "admin", Role: "admin"}
	_, err = svc.AssignCourier(context.Background(), admin, res.Ticket.ID, repartidor)
	require.NoError(t, err)
	return res.Ticket.ID
}

func ticketPath(id uint, suffix string) string {
	return fmt.Sprintf("/tickets/%d%s", id, suffix)
}

func TestTicketHandler_PanelScope(t *testing.T) {
	svc, _ := newTicketService(t)
	seedTicket(t, svc, "PED-1", "Repartidor1")
	seedTicket(t, svc, "PED-2", "Repartidor2")

	rec := send(dashboard(svc, adminClaims), http.MethodGet, "/panel", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, dataOf[[]ticketing.TicketDTO](t, rec), 2)

	rec = send(dashboard(svc, flotaClaims), http.MethodGet, "/panel", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := dataOf[[]ticketing.TicketDTO](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, "PED-1", mine[0].Numero)

	rec = send(dashboard(svc, adminClaims), http.MethodGet, "/panel?estado=volando", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(dashboard(svc, nil), http.MethodGet, "/panel", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTicketHandler_DetailVisibility(t *testing.T) {
	svc, _ := newTicketService(t)
	own := seedTicket(t, svc, "PED-1", "Repartidor1")
	other := seedTicket(t, svc, "PED-2", "Repartidor2")
	flota := dashboard(svc, flotaClaims)

	assert.Equal(t, http.StatusOK, send(flota, http.MethodGet, ticketPath(own, ""), nil, nil).Code)

	rec := send(flota, http.MethodGet, ticketPath(other, ""), nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, rec))

	rec = send(flota, http.MethodGet, ticketPath(999, ""), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketHandler_UpdateEstado(t *testing.T) {
	svc, _ := newTicketService(t)
	id := seedTicket(t, svc, "PED-1", "Repartidor1")
	flota := dashboard(svc, flotaClaims)

	rec := send(flota, http.MethodPost, ticketPath(id, "/estado"), map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, errorCode(t, rec))

	rec = send(flota, http.MethodPost, ticketPath(id, "/estado"), map[string]any{"estado": "perdido"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeValidation, errorCode(t, rec))

	rec = send(flota, http.MethodPost, ticketPath(id, "/estado"), map[string]any{"estado": "en-camino"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := dataOf[ticketing.TicketDTO](t, rec)
	assert.Equal(t, "en-camino", updated.Estado)
	assert.Equal(t, "en-envio", updated.EstadoEnvio)

	rec = send(flota, http.MethodPost, ticketPath(id, "/estado"), map[string]any{"estado": "pendiente"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, rec))

	rec = send(flota, http.MethodPost, ticketPath(id, "/estado"), map[string]any{"prioridad": "alta"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(dashboard(svc, adminClaims), http.MethodPost, ticketPath(id, "/estado"), map[string]any{"prioridad": "alta"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alta", dataOf[ticketing.TicketDTO](t, rec).Prioridad)
}

func TestTicketHandler_AssignCourier(t *testing.T) {
	svc, _ := newTicketService(t)
	id := seedTicket(t, svc, "PED-1", "Repartidor1")
	admin := dashboard(svc, adminClaims)

	rec := send(dashboard(svc, flotaClaims), http.MethodPost, ticketPath(id, "/repartidor"), map[string]any{"repartidor": "Repartidor2"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(admin, http.MethodPost, ticketPath(id, "/repartidor"), map[string]any{"repartidor": "Repartidor9"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(admin, http.MethodPost, ticketPath(id, "/repartidor"), map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(admin, http.MethodPost, ticketPath(id, "/repartidor"), map[string]any{"repartidor": "Repartidor3"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Repartidor3", dataOf[ticketing.TicketDTO](t, rec).Repartidor)
}

func TestTicketHandler_ArchiveAndRegistro(t *testing.T) {
	svc, _ := newTicketService(t)
	id := seedTicket(t, svc, "PED-1", "Repartidor1")
	admin := dashboard(svc, adminClaims)

	rec := send(admin, http.MethodPost, ticketPath(id, "/archivar"), nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "open tickets stay on the panel")
	assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, rec))

	rec = send(admin, http.MethodPost, ticketPath(id, "/estado"), map[string]any{"estado": "entregado"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = send(admin, http.MethodPost, ticketPath(id, "/archivar"), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reg := dataOf[ticketing.RegistroDTO](t, rec)
	assert.Equal(t, "PED-1", reg.Numero)
	assert.Equal(t, "entregado", reg.EstadoFinal)
	assert.True(t, decimal.NewFromInt(1800).Equal(reg.Total))

	assert.Equal(t, http.StatusNotFound, send(admin, http.MethodGet, ticketPath(id, ""), nil, nil).Code)

	rec = send(admin, http.MethodGet, "/registro?page=1&page_size=10", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.Response](t, rec)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)

	rec = send(admin, http.MethodGet, "/registro?order_by=numero&order_dir=asc", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = send(admin, http.MethodGet, "/registro?order_by=cliente_email", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(dashboard(svc, flotaClaims), http.MethodGet, "/registro", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTicketHandler_Delete(t *testing.T) {
	svc, _ := newTicketService(t)
	id := seedTicket(t, svc, "PED-1", "Repartidor1")

	assert.Equal(t, http.StatusForbidden, send(dashboard(svc, flotaClaims), http.MethodDelete, ticketPath(id, ""), nil, nil).Code)

	admin := dashboard(svc, adminClaims)
	assert.Equal(t, http.StatusNoContent, send(admin, http.MethodDelete, ticketPath(id, ""), nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, send(admin, http.MethodDelete, ticketPath(id, ""), nil, nil).Code)
}

func TestTicketHandler_RemitoDisabled(t *testing.T) {
	svc, _ := newTicketService(t)
	id := seedTicket(t, svc, "PED-1", "Repartidor1")

	rec := send(dashboard(svc, adminClaims), http.MethodGet, ticketPath(id, "/remito.pdf"), nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, dto.ErrCodeServiceUnavailable, errorCode(t, rec))
}
