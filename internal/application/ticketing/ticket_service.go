package ticketing

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/printing"
	"github.com/belgrano/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PanelLimit caps the dashboard listing
const PanelLimit = 500

// RemitoRenderer produces the delivery slip of a ticket
type RemitoRenderer interface {
	RenderPDF(ctx context.Context, t *ticket.Ticket) ([]byte, error)
}

// OutboxNotifier wakes the outbox worker once new entries are committed
type OutboxNotifier interface {
	Notify()
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// TicketService receives orders as tickets and runs the dashboard actions
// on them. Every change is committed together with its outbox event.
type TicketService struct {
	tx       TransactionScope
	tickets  ticket.Repository
	registro ticket.RegistroRepository
	pool     *ticket.CourierPool
	rng      ticket.Chooser
	remitos  RemitoRenderer
	notifier OutboxNotifier
	metrics  *telemetry.BusinessMetrics
	logger   *zap.Logger
}

// TicketServiceOption configures a TicketService
type TicketServiceOption func(*TicketService)

// WithChooser replaces the random source used for courier assignment
func WithChooser(rng ticket.Chooser) TicketServiceOption {
	return func(s *TicketService) { s.rng = rng }
}

// WithRemitoRenderer enables delivery slip rendering
func WithRemitoRenderer(r RemitoRenderer) TicketServiceOption {
	return func(s *TicketService) { s.remitos = r }
}

// WithOutboxNotifier wakes the outbox worker after each commit
func WithOutboxNotifier(n OutboxNotifier) TicketServiceOption {
	return func(s *TicketService) { s.notifier = n }
}

// WithMetrics records business metrics
func WithMetrics(m *telemetry.BusinessMetrics) TicketServiceOption {
	return func(s *TicketService) { s.metrics = m }
}

// NewTicketService creates a new ticket service
func NewTicketService(
	tx TransactionScope,
	tickets ticket.Repository,
	registro ticket.RegistroRepository,
	pool *ticket.CourierPool,
	logger *zap.Logger,
	opts ...TicketServiceOption,
) *TicketService {
	s := &TicketService{
		tx:       tx,
		tickets:  tickets,
		registro: registro,
		pool:     pool,
		rng:      globalRand{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = telemetry.NoopBusinessMetrics()
	}
	return s
}

// Receive stores an incoming order as a ticket and assigns it a courier.
// A numero seen before returns the existing ticket with Created false.
func (s *TicketService) Receive(ctx context.Context, in ReceiveInput) (*ReceiveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ticket", "receive", telemetry.SpanAttrNumero, in.Numero)
	defer span.End()

	t, err := ticket.NewTicket(ticket.NewTicketParams{
		Numero:           in.Numero,
		ClienteNombre:    in.ClienteNombre,
		ClienteDireccion: in.ClienteDireccion,
		ClienteTelefono:  in.ClienteTelefono,
		ClienteEmail:     in.ClienteEmail,
		Productos:        in.Productos,
		Total:            in.Total,
		MetodoPago:       in.MetodoPago,
		Estado:           in.Estado,
		Prioridad:        in.Prioridad,
		TipoCliente:      in.TipoCliente,
		Indicaciones:     in.Indicaciones,
	})
	if err != nil {
		s.logger.Warn("Rejected incoming ticket", zap.String("numero", in.Numero), zap.Error(err))
		return nil, err
	}

	if existing, ok, err := s.existing(ctx, t.Numero); err != nil {
		return nil, err
	} else if ok {
		return existing, nil
	}

	err = s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
		openAlta, err := repos.Tickets().CountOpenAltaByRepartidor(ctx)
		if err != nil {
			return err
		}
		if err := t.AssignRepartidor(s.pool.Assign(openAlta, s.rng), s.pool); err != nil {
			return err
		}
		// receipt is announced by nuevo_ticket alone
		t.ClearDomainEvents()
		if err := repos.Tickets().Save(ctx, t); err != nil {
			return err
		}
		return repos.Events().Publish(ctx, ticket.NewTicketCreadoEvent(t))
	})
	if errors.Is(err, shared.ErrAlreadyExists) {
		// lost a race against a concurrent delivery of the same order
		if existing, ok, lookupErr := s.existing(ctx, t.Numero); lookupErr == nil && ok {
			return existing, nil
		}
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to store ticket", zap.String("numero", t.Numero), zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "No se pudo registrar el ticket")
	}

	s.afterCommit()
	s.metrics.RecordTicketReceived(ctx, string(t.Prioridad), string(t.TipoCliente))
	s.metrics.RecordAssignment(ctx, t.Repartidor)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTicketID, t.ID,
		telemetry.SpanAttrPrioridad, string(t.Prioridad),
		telemetry.SpanAttrRepartidor, t.Repartidor)
	s.logger.Info("Ticket received",
		zap.String("numero", t.Numero),
		zap.Uint("ticket_id", t.ID),
		zap.String("prioridad", string(t.Prioridad)),
		zap.String("tipo_cliente", string(t.TipoCliente)),
		zap.String("repartidor", t.Repartidor))
	return &ReceiveResult{Ticket: ToTicketDTO(t), Created: true}, nil
}

// existing finds an order already received, active or archived
func (s *TicketService) existing(ctx context.Context, numero string) (*ReceiveResult, bool, error) {
	t, err := s.tickets.FindByNumero(ctx, numero)
	if err == nil {
		s.logger.Info("Duplicate ticket ignored", zap.String("numero", numero), zap.Uint("ticket_id", t.ID))
		return &ReceiveResult{Ticket: ToTicketDTO(t), Created: false}, true, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		s.logger.Error("Failed to look up ticket", zap.String("numero", numero), zap.Error(err))
		return nil, false, shared.NewDomainError(shared.CodeInternal, "No se pudo registrar el ticket")
	}

	reg, err := s.registro.FindByNumero(ctx, numero)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Error("Failed to look up registro", zap.String("numero", numero), zap.Error(err))
		return nil, false, shared.NewDomainError(shared.CodeInternal, "No se pudo registrar el ticket")
	}
	s.logger.Info("Redelivery of archived ticket ignored", zap.String("numero", numero), zap.Uint("ticket_id", reg.TicketID))
	return &ReceiveResult{Ticket: ArchivedTicketDTO(reg), Created: false}, true, nil
}

// Update applies a dashboard edit. Flota users may only move the estado of
// their own tickets.
func (s *TicketService) Update(ctx context.Context, actor Actor, id uint, in UpdateTicketInput) (*TicketDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ticket", "update", telemetry.SpanAttrTicketID, id)
	defer span.End()

	if !actor.Can(identity.CapUpdateTicket) {
		return nil, forbidden()
	}
	t, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if (in.Prioridad != nil || in.Indicaciones != nil) && !actor.Can(identity.CapViewAllTickets) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Solo un administrador puede cambiar prioridad o indicaciones")
	}

	var params ticket.UpdateParams
	if in.Estado != nil {
		e := ticket.Estado(*in.Estado)
		params.Estado = &e
	}
	if in.Prioridad != nil {
		p := ticket.Prioridad(*in.Prioridad)
		params.Prioridad = &p
	}
	params.Indicaciones = in.Indicaciones

	from := t.Estado
	if err := t.Update(params); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, t, func(repos TransactionalRepositories) error {
		return repos.Tickets().Save(ctx, t)
	}); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if from != t.Estado {
		s.metrics.RecordEstadoChange(ctx, string(t.Estado))
		s.logger.Info("Ticket estado changed",
			zap.String("numero", t.Numero),
			zap.String("from", string(from)),
			zap.String("to", string(t.Estado)),
			zap.String("by", actor.Username))
	}
	return ToTicketDTO(t), nil
}

// AssignCourier reassigns a ticket to another courier
func (s *TicketService) AssignCourier(ctx context.Context, actor Actor, id uint, repartidor string) (*TicketDTO, error) {
	if !actor.Can(identity.CapAssignCourier) {
		return nil, forbidden()
	}
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.AssignRepartidor(repartidor, s.pool); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, t, func(repos TransactionalRepositories) error {
		return repos.Tickets().Save(ctx, t)
	}); err != nil {
		return nil, err
	}
	s.metrics.RecordAssignment(ctx, repartidor)
	s.logger.Info("Courier reassigned",
		zap.String("numero", t.Numero),
		zap.String("repartidor", repartidor),
		zap.String("by", actor.Username))
	return ToTicketDTO(t), nil
}

// Delete removes an active ticket
func (s *TicketService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.Can(identity.CapDeleteTicket) {
		return forbidden()
	}
	t, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	t.AddDomainEvent(ticket.NewTicketEliminadoEvent(t))
	if err := s.commit(ctx, t, func(repos TransactionalRepositories) error {
		return repos.Tickets().Delete(ctx, t.ID)
	}); err != nil {
		return err
	}
	s.logger.Info("Ticket deleted", zap.String("numero", t.Numero), zap.String("by", actor.Username))
	return nil
}

// Archive moves a closed ticket to the registro
func (s *TicketService) Archive(ctx context.Context, actor Actor, id uint) (*RegistroDTO, error) {
	if !actor.Can(identity.CapArchiveTicket) {
		return nil, forbidden()
	}
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	reg, err := t.Archive()
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, t, func(repos TransactionalRepositories) error {
		return repos.Registro().Archive(ctx, reg)
	}); err != nil {
		return nil, err
	}
	s.logger.Info("Ticket archived",
		zap.String("numero", t.Numero),
		zap.String("estado_final", string(reg.EstadoFinal)),
		zap.String("by", actor.Username))
	dto := toRegistroDTO(reg)
	return &dto, nil
}

// Panel lists the tickets the actor works on, newest first
func (s *TicketService) Panel(ctx context.Context, actor Actor, estado string) ([]*TicketDTO, error) {
	filter := ticket.ListFilter{Estado: ticket.Estado(estado), Limit: PanelLimit}
	switch {
	case actor.Can(identity.CapViewAllTickets):
	case actor.Can(identity.CapViewOwnTickets):
		if actor.Repartidor == "" {
			return []*TicketDTO{}, nil
		}
		filter.Repartidor = actor.Repartidor
	default:
		return nil, forbidden()
	}
	if filter.Estado != "" && !filter.Estado.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Estado desconocido")
	}

	list, err := s.tickets.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list tickets", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to list tickets")
	}
	out := make([]*TicketDTO, len(list))
	for i, t := range list {
		out[i] = ToTicketDTO(t)
	}
	return out, nil
}

// Detail returns one ticket the actor may see
func (s *TicketService) Detail(ctx context.Context, actor Actor, id uint) (*TicketDTO, error) {
	t, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return ToTicketDTO(t), nil
}

// Registro lists archived tickets, newest first unless q says otherwise
func (s *TicketService) Registro(ctx context.Context, actor Actor, q RegistroQuery) (shared.Paginated[RegistroDTO], error) {
	if !actor.Can(identity.CapViewAllTickets) {
		return shared.Paginated[RegistroDTO]{}, forbidden()
	}
	f := shared.DefaultFilter().WithPage(q.Page, q.PageSize)
	f.OrderBy = q.OrderBy
	if q.OrderDir != "" {
		f.OrderDir = q.OrderDir
	}
	regs, total, err := s.registro.List(ctx, f)
	if err != nil {
		s.logger.Error("Failed to list registro", zap.Error(err))
		return shared.Paginated[RegistroDTO]{}, shared.NewDomainError(shared.CodeInternal, "Failed to list registro")
	}
	items := make([]RegistroDTO, len(regs))
	for i, r := range regs {
		items[i] = toRegistroDTO(r)
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// Remito renders the delivery slip of a ticket as PDF
func (s *TicketService) Remito(ctx context.Context, actor Actor, id uint) ([]byte, string, error) {
	t, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	if s.remitos == nil {
		return nil, "", printingDisabled()
	}
	pdf, err := s.remitos.RenderPDF(ctx, t)
	if err != nil {
		var re *printing.RenderError
		if errors.As(err, &re) && re.Code == printing.ErrCodeDisabled {
			return nil, "", printingDisabled()
		}
		s.logger.Error("Failed to render remito", zap.String("numero", t.Numero), zap.Error(err))
		return nil, "", shared.NewDomainError(shared.CodeInternal, "No se pudo generar el remito")
	}
	return pdf, "remito-" + t.Numero + ".pdf", nil
}

// commit runs write in a transaction together with the ticket's pending events
func (s *TicketService) commit(ctx context.Context, t *ticket.Ticket, write func(TransactionalRepositories) error) error {
	events := t.GetDomainEvents()
	err := s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := write(repos); err != nil {
			return err
		}
		return repos.Events().Publish(ctx, events...)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeNotFound, "Ticket no encontrado")
		}
		s.logger.Error("Failed to commit ticket change", zap.String("numero", t.Numero), zap.Error(err))
		return shared.NewDomainError(shared.CodeInternal, "No se pudo guardar el ticket")
	}
	t.ClearDomainEvents()
	s.afterCommit()
	return nil
}

func (s *TicketService) afterCommit() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

func (s *TicketService) find(ctx context.Context, id uint) (*ticket.Ticket, error) {
	t, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Ticket no encontrado")
		}
		s.logger.Error("Failed to load ticket", zap.Uint("ticket_id", id), zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to load ticket")
	}
	return t, nil
}

func (s *TicketService) visible(ctx context.Context, actor Actor, id uint) (*ticket.Ticket, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.sees(t) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "El ticket está asignado a otro repartidor")
	}
	return t, nil
}

func forbidden() error {
	return shared.NewDomainError(shared.CodeForbidden, "No tiene permisos para esta acción")
}

func printingDisabled() error {
	return shared.NewDomainError(shared.CodeServiceUnavailable, "La impresión de remitos está deshabilitada")
}
