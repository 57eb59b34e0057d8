package ticketing

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/shopspring/decimal"
)

// memTickets keeps active and archived tickets in maps
type memTickets struct {
	byID     map[uint]*ticket.Ticket
	registro []*ticket.Registro
	nextID   uint
	err      error
}

func newMemTickets() *memTickets {
	return &memTickets{byID: map[uint]*ticket.Ticket{}}
}

func (m *memTickets) Save(_ context.Context, t *ticket.Ticket) error {
	if m.err != nil {
		return m.err
	}
	if t.ID == 0 {
		for _, existing := range m.byID {
			if existing.Numero == t.Numero {
				return shared.ErrAlreadyExists
			}
		}
		m.nextID++
		t.ID = m.nextID
	}
	cp := *t
	cp.ClearDomainEvents()
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTickets) FindByID(_ context.Context, id uint) (*ticket.Ticket, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTickets) FindByNumero(_ context.Context, numero string) (*ticket.Ticket, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, t := range m.byID {
		if t.Numero == numero {
			cp := *t
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memTickets) List(_ context.Context, f ticket.ListFilter) ([]*ticket.Ticket, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*ticket.Ticket
	for _, t := range m.byID {
		if f.Repartidor != "" && t.Repartidor != f.Repartidor {
			continue
		}
		if f.Estado != "" && t.Estado != f.Estado {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memTickets) Delete(_ context.Context, id uint) error {
	if _, ok := m.byID[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memTickets) Count(context.Context) (int64, error) {
	return int64(len(m.byID)), m.err
}

func (m *memTickets) CountOpenAltaByRepartidor(context.Context) (map[string]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := map[string]int64{}
	for _, t := range m.byID {
		if t.Prioridad == ticket.PrioridadAlta && t.Estado.IsOpen() && t.Repartidor != "" {
			counts[t.Repartidor]++
		}
	}
	return counts, nil
}

func (m *memTickets) CountByEstado(context.Context) (map[ticket.Estado]int64, error) {
	counts := map[ticket.Estado]int64{}
	for _, t := range m.byID {
		counts[t.Estado]++
	}
	return counts, m.err
}

func (m *memTickets) StatsByRepartidor(context.Context) (map[string]*ticket.CourierStats, error) {
	stats := map[string]*ticket.CourierStats{}
	for _, t := range m.byID {
		if t.Repartidor == "" {
			continue
		}
		s, ok := stats[t.Repartidor]
		if !ok {
			s = &ticket.CourierStats{}
			stats[t.Repartidor] = s
		}
		s.Add(t.Estado, 1)
	}
	return stats, m.err
}

// memRegistro archives into the same memTickets
type memRegistro struct{ m *memTickets }

func (r memRegistro) Archive(ctx context.Context, reg *ticket.Registro) error {
	if err := r.m.Delete(ctx, reg.TicketID); err != nil {
		return err
	}
	reg.ID = uint(len(r.m.registro) + 1)
	r.m.registro = append(r.m.registro, reg)
	return nil
}

func (r memRegistro) FindByNumero(_ context.Context, numero string) (*ticket.Registro, error) {
	if r.m.err != nil {
		return nil, r.m.err
	}
	for i := len(r.m.registro) - 1; i >= 0; i-- {
		if r.m.registro[i].Numero == numero {
			return r.m.registro[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memRegistro) List(_ context.Context, f shared.Filter) ([]*ticket.Registro, int64, error) {
	if r.m.err != nil {
		return nil, 0, r.m.err
	}
	all := make([]*ticket.Registro, len(r.m.registro))
	for i, reg := range r.m.registro {
		all[len(all)-1-i] = reg
	}
	start := min(f.Offset(), len(all))
	end := min(start+f.PageSize, len(all))
	return all[start:end], int64(len(all)), nil
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type fakeRepos struct {
	tickets *memTickets
	events  *recordingPublisher
}

func (r fakeRepos) Tickets() ticket.Repository { return r.tickets }
func (r fakeRepos) Registro() ticket.RegistroRepository { return memRegistro{r.tickets} }
func (r fakeRepos) Events() shared.EventPublisher { return r.events }

// fakeScope keeps the events of successful transactions only
type fakeScope struct {
	tickets   *memTickets
	committed []shared.DomainEvent
	err       error
}

func (s *fakeScope) Execute(_ context.Context, fn func(TransactionalRepositories) error) error {
	if s.err != nil {
		return s.err
	}
	pub := &recordingPublisher{}
	if err := fn(fakeRepos{tickets: s.tickets, events: pub}); err != nil {
		return err
	}
	s.committed = append(s.committed, pub.events...)
	return nil
}

func (s *fakeScope) eventTypes() []string {
	out := make([]string, len(s.committed))
	for i, e := range s.committed {
		out[i] = e.EventType()
	}
	return out
}

// firstChooser always picks the first candidate
type firstChooser struct{}

func (firstChooser) IntN(int) int { return 0 }

type countingNotifier struct{ n int }

func (c *countingNotifier) Notify() { c.n++ }

var errBoom = errors.New("boom")

var (
	admin = Actor{UserID: 1, Username: "admin", Role: identity.RoleAdmin}
	flota = Actor{UserID: 2, Username: "repartidor1", Role: identity.RoleFlota, Repartidor: "Repartidor1"}
)

func total(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func receiveInput(numero, tipo string) ReceiveInput {
	return ReceiveInput{
		Numero:           numero,
		ClienteNombre:    "Ana Pérez",
		ClienteDireccion: "Belgrano 123",
		ClienteTelefono:  "11-5555-0000",
		ClienteEmail:     "ana@example.com",
		Productos: []ticket.Producto{
			{Nombre: "Arroz", Cantidad: 2, Precio: decimal.NewFromInt(500), Subtotal: decimal.NewFromInt(1000)},
			{Nombre: "Aceite", Cantidad: 1, Precio: decimal.NewFromInt(800), Subtotal: decimal.NewFromInt(800)},
		},
		Total:       total(1800),
		MetodoPago:  "efectivo",
		TipoCliente: tipo,
	}
}

// memStaff is an in-memory StaffUserRepository
type memStaff struct {
	users  map[uint]*identity.StaffUser
	nextID uint
}

func newMemStaff() *memStaff {
	return &memStaff{users: map[uint]*identity.StaffUser{}}
}

func (m *memStaff) Save(_ context.Context, u *identity.StaffUser) error {
	for _, other := range m.users {
		if other.ID != u.ID && (other.Username == u.Username || other.Email == u.Email) {
			return shared.ErrAlreadyExists
		}
	}
	if u.ID == 0 {
		m.nextID++
		u.ID = m.nextID
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStaff) FindByID(_ context.Context, id uint) (*identity.StaffUser, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStaff) FindByUsername(_ context.Context, username string) (*identity.StaffUser, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStaff) FindByEmail(_ context.Context, email string) (*identity.StaffUser, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStaff) List(context.Context) ([]*identity.StaffUser, error) {
	out := make([]*identity.StaffUser, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStaff) Delete(_ context.Context, id uint) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}
