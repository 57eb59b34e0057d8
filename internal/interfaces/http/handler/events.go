package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/infrastructure/realtime"
	"github.com/belgrano/backend/internal/infrastructure/telemetry"
	"github.com/belgrano/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventsHandler streams ticket events to the dashboard over SSE
type EventsHandler struct {
	BaseHandler
	hub     *realtime.Hub
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger
}

// NewEventsHandler creates the live feed handler
func NewEventsHandler(hub *realtime.Hub, metrics *telemetry.BusinessMetrics, logger *zap.Logger) *EventsHandler {
	if metrics == nil {
		metrics = telemetry.NoopBusinessMetrics()
	}
	return &EventsHandler{hub: hub, metrics: metrics, logger: logger}
}

// Stream keeps the connection open and writes nuevo_ticket,
// ticket_actualizado, ticket_asignado, ticket_eliminado and ticket_archivado
// events as they happen. Couriers only receive events of their own tickets.
// GET /eventos
func (h *EventsHandler) Stream(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	scope := ""
	if !actor.Can(identity.CapViewAllTickets) {
		if actor.Repartidor == "" {
			h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, "Acceso denegado")
			return
		}
		scope = actor.Repartidor
	}

	client, err := h.hub.Subscribe(actor.Username, scope)
	if err != nil {
		if errors.Is(err, realtime.ErrTooManyClients) {
			h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeServiceUnavailable, "Maximum number of live connections reached")
			return
		}
		h.HandleError(c, err)
		return
	}
	ctx := c.Request.Context()
	h.metrics.SSEClientConnected(ctx, 1)
	defer func() {
		h.hub.Unsubscribe(client)
		h.metrics.SSEClientConnected(ctx, -1)
	}()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	_ = realtime.WriteEvent(w, realtime.Message{
		Event: "connected",
		Data:  []byte(fmt.Sprintf(`{"client_id":%q,"timestamp":%d}`, client.ID, time.Now().Unix())),
	})
	w.Flush()
	h.logger.Info("Live feed client connected",
		zap.String("client_id", client.ID),
		zap.String("username", actor.Username),
		zap.String("repartidor", scope))

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			return
		case msg := <-client.C:
			if err := realtime.WriteEvent(w, msg); err != nil {
				h.logger.Debug("Live feed write failed", zap.String("client_id", client.ID), zap.Error(err))
				return
			}
			w.Flush()
		}
	}
}
