package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/belgrano/backend/internal/infrastructure/config"
)

// TicketSnapshot is one row of the ticket sync feed sent to the storefront
type TicketSnapshot struct {
	NumeroPedido       string          `json:"numero_pedido"`
	TicketID           uint            `json:"ticket_id"`
	Estado             string          `json:"estado"`
	Repartidor         string          `json:"repartidor"`
	FechaCreacion      string          `json:"fecha_creacion"`
	FechaActualizacion string          `json:"fecha_actualizacion"`
	Datos              json.RawMessage `json:"datos_completos,omitempty"`
}

// StorefrontClient is the ticketing service's client for the storefront API
type StorefrontClient struct {
	baseClient
}

// NewStorefrontClient creates a client from the integration settings
func NewStorefrontClient(cfg config.IntegrationConfig) *StorefrontClient {
	return &StorefrontClient{baseClient: newBaseClient(cfg.StorefrontBaseURL, cfg.APIKey, cfg.Timeout)}
}

// UpdatePedidoEstado sets the estado of the order with the given numero.
// ErrRemoteConflict means the order is already closed.
func (c *StorefrontClient) UpdatePedidoEstado(ctx context.Context, numero, estado string) error {
	return c.doJSON(ctx, http.MethodPut, "/api/v1/pedidos/"+url.PathEscape(numero)+"/estado", nil,
		map[string]string{"estado": estado}, nil)
}

// SyncTickets upserts ticket snapshots into the storefront's sync table
func (c *StorefrontClient) SyncTickets(ctx context.Context, tickets []TicketSnapshot) error {
	if len(tickets) == 0 {
		return nil
	}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/sync/tickets", nil,
		map[string]any{"tickets": tickets}, nil)
}

// Health checks the storefront API health endpoint
func (c *StorefrontClient) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/v1/health", nil, nil, nil)
}
