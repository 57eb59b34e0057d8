package integration

import (
	"context"
	"net/http"
	"time"

	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/infrastructure/config"
)

// TicketReceipt is the ticketing service's answer to a new ticket
type TicketReceipt struct {
	Exito      bool   `json:"exito"`
	TicketID   uint   `json:"ticket_id"`
	Repartidor string `json:"repartidor_asignado"`
	Duplicado  bool   `json:"duplicado"`
}

// TicketsClient is the storefront's client for the ticketing service
type TicketsClient struct {
	baseClient
	healthTimeout time.Duration
}

// NewTicketsClient creates a client from the integration settings
func NewTicketsClient(cfg config.IntegrationConfig) *TicketsClient {
	return &TicketsClient{
		baseClient:    newBaseClient(cfg.TicketsBaseURL, cfg.APIKey, cfg.Timeout),
		healthTimeout: cfg.HealthTimeout,
	}
}

// CreateTicket posts an order to ticketing. The numero travels as the
// Idempotency-Key; ticketing answers a repeated numero with the existing ticket.
func (c *TicketsClient) CreateTicket(ctx context.Context, payload order.TicketPayload) (*TicketReceipt, error) {
	var receipt TicketReceipt
	err := c.doJSON(ctx, http.MethodPost, "/api/tickets",
		map[string]string{HeaderIdempotencyKey: payload.Numero},
		payload, &receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Health checks that the ticketing service answers on its root
func (c *TicketsClient) Health(ctx context.Context) error {
	if c.healthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.healthTimeout)
		defer cancel()
	}
	return c.doJSON(ctx, http.MethodGet, "/", nil, nil, nil)
}
