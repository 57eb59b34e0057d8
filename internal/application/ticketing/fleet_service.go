package ticketing

import (
	"context"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"go.uber.org/zap"
)

// FleetService reports courier workload and ticket totals
type FleetService struct {
	tickets  ticket.Repository
	registro ticket.RegistroRepository
	pool     *ticket.CourierPool
	logger   *zap.Logger
}

// NewFleetService creates a new fleet service
func NewFleetService(tickets ticket.Repository, registro ticket.RegistroRepository, pool *ticket.CourierPool, logger *zap.Logger) *FleetService {
	return &FleetService{tickets: tickets, registro: registro, pool: pool, logger: logger}
}

// Couriers returns one entry per courier of the pool, in roster order,
// including couriers without tickets.
func (s *FleetService) Couriers(ctx context.Context, actor Actor) ([]CourierStatsDTO, error) {
	if !actor.Can(identity.CapViewFleet) {
		return nil, forbidden()
	}
	stats, err := s.tickets.StatsByRepartidor(ctx)
	if err != nil {
		return nil, s.internal("Failed to load courier stats", err)
	}
	openAlta, err := s.tickets.CountOpenAltaByRepartidor(ctx)
	if err != nil {
		return nil, s.internal("Failed to load courier stats", err)
	}

	names := s.pool.Names()
	out := make([]CourierStatsDTO, 0, len(names))
	for _, name := range names {
		dto := CourierStatsDTO{Repartidor: name, AltaAbiertos: openAlta[name]}
		if st, ok := stats[name]; ok {
			dto.Total = st.Total
			dto.Pendientes = st.Pendientes
			dto.EnPreparacion = st.EnPreparacion
			dto.EnCamino = st.EnCamino
			dto.Entregados = st.Entregados
			dto.Cancelados = st.Cancelados
		}
		out = append(out, dto)
	}
	return out, nil
}

// Report summarizes active tickets by estado and courier
func (s *FleetService) Report(ctx context.Context, actor Actor) (*ReportDTO, error) {
	if !actor.Can(identity.CapViewReports) {
		return nil, forbidden()
	}
	total, err := s.tickets.Count(ctx)
	if err != nil {
		return nil, s.internal("Failed to build report", err)
	}
	byEstado, err := s.tickets.CountByEstado(ctx)
	if err != nil {
		return nil, s.internal("Failed to build report", err)
	}
	stats, err := s.tickets.StatsByRepartidor(ctx)
	if err != nil {
		return nil, s.internal("Failed to build report", err)
	}
	_, archived, err := s.registro.List(ctx, shared.Filter{Page: 1, PageSize: 1})
	if err != nil {
		return nil, s.internal("Failed to build report", err)
	}

	report := &ReportDTO{
		Total:         total,
		PorEstado:     make(map[string]int64, len(ticket.Estados)),
		PorRepartidor: make(map[string]int64, len(stats)),
		Archivados:    archived,
	}
	for _, e := range ticket.Estados {
		report.PorEstado[string(e)] = byEstado[e]
	}
	var assigned int64
	for name, st := range stats {
		report.PorRepartidor[name] = st.Total
		assigned += st.Total
	}
	report.SinAsignar = max(total-assigned, 0)
	return report, nil
}

func (s *FleetService) internal(msg string, err error) error {
	s.logger.Error(msg, zap.Error(err))
	return shared.NewDomainError(shared.CodeInternal, msg)
}
