package ticket

import (
	"context"

	"github.com/belgrano/backend/internal/domain/shared"
)

// ListFilter narrows ticket listings
type ListFilter struct {
	Repartidor string
	Estado     Estado
	Limit      int
}

// CourierStats aggregates the tickets held by one courier
type CourierStats struct {
	Total         int64 `json:"total"`
	Pendientes    int64 `json:"pendientes"`
	EnPreparacion int64 `json:"en_preparacion"`
	EnCamino      int64 `json:"en_camino"`
	Entregados    int64 `json:"entregados"`
	Cancelados    int64 `json:"cancelados"`
}

// Add counts one ticket in the given estado
func (s *CourierStats) Add(e Estado, n int64) {
	s.Total += n
	switch e {
	case EstadoPendiente:
		s.Pendientes += n
	case EstadoEnPreparacion:
		s.EnPreparacion += n
	case EstadoEnCamino:
		s.EnCamino += n
	case EstadoEntregado:
		s.Entregados += n
	case EstadoCancelado:
		s.Cancelados += n
	}
}

// Repository persists active tickets
type Repository interface {
	// Save inserts the ticket (assigning its ID) or updates it
	Save(ctx context.Context, t *Ticket) error
	FindByID(ctx context.Context, id uint) (*Ticket, error)
	FindByNumero(ctx context.Context, numero string) (*Ticket, error)
	// List returns tickets newest first
	List(ctx context.Context, filter ListFilter) ([]*Ticket, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	// CountOpenAltaByRepartidor counts open alta tickets per courier
	CountOpenAltaByRepartidor(ctx context.Context) (map[string]int64, error)
	CountByEstado(ctx context.Context) (map[Estado]int64, error)
	StatsByRepartidor(ctx context.Context) (map[string]*CourierStats, error)
}

// RegistroRepository persists archived tickets
type RegistroRepository interface {
	// Archive stores the registro entry and removes the active ticket
	Archive(ctx context.Context, reg *Registro) error
	// FindByNumero returns the latest archived copy of an order's ticket
	FindByNumero(ctx context.Context, numero string) (*Registro, error)
	List(ctx context.Context, filter shared.Filter) ([]*Registro, int64, error)
}
