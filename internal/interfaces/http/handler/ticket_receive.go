package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/integration"
	"github.com/belgrano/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TicketReceiveHandler accepts orders pushed by the storefront. Its
// answers use the flat {exito, ...} shape the storefront client reads.
type TicketReceiveHandler struct {
	tickets *ticketing.TicketService
	logger  *zap.Logger
}

// NewTicketReceiveHandler creates the receipt handler
func NewTicketReceiveHandler(tickets *ticketing.TicketService, logger *zap.Logger) *TicketReceiveHandler {
	return &TicketReceiveHandler{tickets: tickets, logger: logger}
}

// ReceiveTicketRequest is an incoming order. The bare direccion, telefono
// and email keys are accepted from older senders.
type ReceiveTicketRequest struct {
	Numero           string            `json:"numero"`
	ClienteNombre    string            `json:"cliente_nombre"`
	ClienteDireccion string            `json:"cliente_direccion"`
	ClienteTelefono  string            `json:"cliente_telefono"`
	ClienteEmail     string            `json:"cliente_email"`
	Direccion        string            `json:"direccion"`
	Telefono         string            `json:"telefono"`
	Email            string            `json:"email"`
	Productos        []json.RawMessage `json:"productos"`
	Total            *decimal.Decimal  `json:"total"`
	MetodoPago       string            `json:"metodo_pago"`
	Indicaciones     string            `json:"indicaciones"`
	Estado           string            `json:"estado"`
	Prioridad        string            `json:"prioridad"`
	TipoCliente      string            `json:"tipo_cliente"`
}

// ReceiveTicketResponse reports the ticket behind a receipt
type ReceiveTicketResponse struct {
	Exito              bool   `json:"exito"`
	TicketID           uint   `json:"ticket_id"`
	Numero             string `json:"numero"`
	Estado             string `json:"estado"`
	Prioridad          string `json:"prioridad"`
	RepartidorAsignado string `json:"repartidor_asignado"`
	Duplicado          bool   `json:"duplicado"`
}

var errBadProducto = errors.New("productos must hold names or {nombre, cantidad, precio, subtotal} objects")

// parseProductos accepts bare names, full line objects or a mix of both
func parseProductos(raw []json.RawMessage) ([]ticket.Producto, error) {
	out := make([]ticket.Producto, 0, len(raw))
	for _, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) == 0 {
			return nil, errBadProducto
		}
		switch r[0] {
		case '"':
			var name string
			if err := json.Unmarshal(r, &name); err != nil {
				return nil, errBadProducto
			}
			if strings.TrimSpace(name) == "" {
				continue
			}
			out = append(out, ticket.Producto{Nombre: name})
		case '{':
			var p ticket.Producto
			if err := json.Unmarshal(r, &p); err != nil || strings.TrimSpace(p.Nombre) == "" {
				return nil, errBadProducto
			}
			out = append(out, p)
		default:
			return nil, errBadProducto
		}
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (h *TicketReceiveHandler) fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"exito": false, "error": message})
}

// Receive stores an order as a ticket and assigns a courier. A repeated
// numero answers 200 with the existing ticket; a new one answers 201.
// POST /api/tickets, POST /api/tickets/recibir
func (h *TicketReceiveHandler) Receive(c *gin.Context) {
	var req ReceiveTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "No se recibieron datos válidos")
		return
	}
	productos, err := parseProductos(req.Productos)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.tickets.Receive(c.Request.Context(), ticketing.ReceiveInput{
		Numero:           firstNonEmpty(req.Numero, c.GetHeader(integration.HeaderIdempotencyKey)),
		ClienteNombre:    req.ClienteNombre,
		ClienteDireccion: firstNonEmpty(req.ClienteDireccion, req.Direccion),
		ClienteTelefono:  firstNonEmpty(req.ClienteTelefono, req.Telefono),
		ClienteEmail:     firstNonEmpty(req.ClienteEmail, req.Email),
		Productos:        productos,
		Total:            req.Total,
		MetodoPago:       req.MetodoPago,
		Indicaciones:     req.Indicaciones,
		Estado:           req.Estado,
		Prioridad:        req.Prioridad,
		TipoCliente:      req.TipoCliente,
	})
	if err != nil {
		status := dto.GetHTTPStatus(dto.NormalizeErrorCode(shared.CodeOf(err)))
		if status >= http.StatusInternalServerError || shared.CodeOf(err) == "" {
			h.fail(c, http.StatusInternalServerError, "Error interno del servidor")
			return
		}
		h.fail(c, status, err.Error())
		return
	}

	t := result.Ticket
	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
		h.logger.Info("Duplicate ticket receipt", zap.String("numero", t.Numero), zap.Uint("ticket_id", t.ID))
	}
	c.JSON(status, ReceiveTicketResponse{
		Exito:              true,
		TicketID:           t.ID,
		Numero:             t.Numero,
		Estado:             t.Estado,
		Prioridad:          t.Prioridad,
		RepartidorAsignado: t.Repartidor,
		Duplicado:          !result.Created,
	})
}
