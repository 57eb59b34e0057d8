package handler

import (
	"net/http"
	"strconv"

	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/belgrano/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// TicketHandler serves the dispatch dashboard
type TicketHandler struct {
	BaseHandler
	tickets *ticketing.TicketService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(tickets *ticketing.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// AssignCourierRequest names the courier to hand a ticket to
type AssignCourierRequest struct {
	Repartidor string `json:"repartidor" binding:"required,max=50"`
}

// PanelQuery filters the panel
type PanelQuery struct {
	Estado string `form:"estado" binding:"omitempty,ticket_estado"`
}

// Panel lists active tickets: all of them for admins, their own for couriers
// GET /panel
func (h *TicketHandler) Panel(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var q PanelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	list, err := h.tickets.Panel(c.Request.Context(), actor, q.Estado)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Detail returns one ticket
// GET /tickets/:id
func (h *TicketHandler) Detail(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	t, err := h.tickets.Detail(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Update changes estado, prioridad or indicaciones
// POST /tickets/:id/estado
func (h *TicketHandler) Update(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	var req ticketing.UpdateTicketInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if req.Estado == nil && req.Prioridad == nil && req.Indicaciones == nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Nada para actualizar")
		return
	}
	t, err := h.tickets.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// AssignCourier hands the ticket to another courier
// POST /tickets/:id/repartidor
func (h *TicketHandler) AssignCourier(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	var req AssignCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	t, err := h.tickets.AssignCourier(c.Request.Context(), actor, id, req.Repartidor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Delete removes a ticket
// DELETE /tickets/:id
func (h *TicketHandler) Delete(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.tickets.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Archive moves a finished ticket to the registro
// POST /tickets/:id/archivar
func (h *TicketHandler) Archive(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	reg, err := h.tickets.Archive(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reg)
}

// Remito downloads the delivery slip
// GET /tickets/:id/remito.pdf
func (h *TicketHandler) Remito(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	pdf, filename, err := h.tickets.Remito(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", "inline; filename="+strconv.Quote(filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Registro lists archived tickets
// GET /registro
func (h *TicketHandler) Registro(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var q dto.RegistroRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	p := q.PageRequest.WithDefaults()
	page, err := h.tickets.Registro(c.Request.Context(), actor, ticketing.RegistroQuery{
		Page:     p.Page,
		PageSize: p.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// target resolves the actor and the :id of a ticket route, answering the
// error itself when either is missing
func (h *TicketHandler) target(c *gin.Context) (ticketing.Actor, uint, bool) {
	actor, ok := actorOf(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return actor, 0, false
	}
	id, ok := paramID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid ticket ID")
		return actor, 0, false
	}
	return actor, id, true
}
