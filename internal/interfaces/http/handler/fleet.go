package handler

import (
	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/gin-gonic/gin"
)

// FleetHandler serves courier workload and reports
type FleetHandler struct {
	BaseHandler
	fleet *ticketing.FleetService
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(fleet *ticketing.FleetService) *FleetHandler {
	return &FleetHandler{fleet: fleet}
}

// Couriers returns per-courier ticket counts
// GET /flota
func (h *FleetHandler) Couriers(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	stats, err := h.fleet.Couriers(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Report summarizes the active tickets
// GET /reportes
func (h *FleetHandler) Report(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	report, err := h.fleet.Report(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
