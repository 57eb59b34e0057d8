package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/belgrano/backend/internal/domain/catalog"
	"github.com/belgrano/backend/internal/domain/customer"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Product{
		{ID: "arroz", Nombre: "Arroz 1kg", Precio: decimal.NewFromInt(500), Categoria: "almacen", Negocio: "belgrano", Activo: true, Destacado: true},
		{ID: "aceite", Nombre: "Aceite 900ml", Precio: decimal.NewFromInt(800), Categoria: "almacen", Negocio: "belgrano", Activo: true},
		{ID: "leche", Nombre: "Leche", Precio: decimal.NewFromInt(300), Categoria: "lacteos", Negocio: "la-vaquita", Activo: true},
		{ID: "baja", Nombre: "Discontinuado", Precio: decimal.NewFromInt(10), Categoria: "almacen", Activo: false},
	}, []catalog.Negocio{{ID: "belgrano"}}, []catalog.Categoria{{ID: "almacen"}})
}

// staticSource serves a fixed catalog
type staticSource struct {
	cat *catalog.Catalog
	err error
}

func (s staticSource) Load(context.Context) (*catalog.Catalog, error) {
	return s.cat, s.err
}

// memCustomers is an in-memory customer.Repository
type memCustomers struct {
	mu           sync.Mutex
	users        map[uint]*customer.Usuario
	comerciantes map[uint]*customer.Comerciante
	nextID       uint
}

func newMemCustomers() *memCustomers {
	return &memCustomers{users: map[uint]*customer.Usuario{}, comerciantes: map[uint]*customer.Comerciante{}}
}

func (r *memCustomers) Save(_ context.Context, u *customer.Usuario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		for _, other := range r.users {
			if other.Email == u.Email {
				return shared.ErrAlreadyExists
			}
		}
		r.nextID++
		u.ID = r.nextID
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memCustomers) FindByID(_ context.Context, id uint) (*customer.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memCustomers) FindByEmail(_ context.Context, email string) (*customer.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCustomers) SaveComerciante(_ context.Context, c *customer.Comerciante) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comerciantes[c.UsuarioID] = c
	return nil
}

func (r *memCustomers) FindComerciante(_ context.Context, usuarioID uint) (*customer.Comerciante, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comerciantes[usuarioID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *memCustomers) CountActive(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Activo {
			n++
		}
	}
	return n, nil
}

func (r *memCustomers) addCliente(nombre, email string) *customer.Usuario {
	u, _ := customer.NewUsuario(customer.NewUsuarioParams{
		Nombre: nombre, Email: email, Telefono: "11-5555-0000", PasswordHash: "x",
	})
	_ = r.Save(context.Background(), u)
	return u
}

func (r *memCustomers) addComerciante(nombre, email, negocio string) *customer.Usuario {
	u, _ := customer.NewUsuario(customer.NewUsuarioParams{
		Nombre: nombre, Email: email, PasswordHash: "x", Rol: customer.RolComerciante,
	})
	_ = r.Save(context.Background(), u)
	c, _ := customer.NewComerciante(u.ID, negocio, "20-12345678-9", "Av. Siempreviva 742", "", "Almacén")
	_ = r.SaveComerciante(context.Background(), c)
	return u
}

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, p *order.Pedido) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint) (*order.Pedido, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Pedido), args.Error(1)
}

func (m *MockOrderRepository) FindByNumero(ctx context.Context, numero string) (*order.Pedido, error) {
	args := m.Called(ctx, numero)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Pedido), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, limit int) ([]*order.Pedido, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Pedido), args.Error(1)
}

func (m *MockOrderRepository) ListByUsuario(ctx context.Context, usuarioID uint) ([]*order.Pedido, error) {
	args := m.Called(ctx, usuarioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Pedido), args.Error(1)
}

func (m *MockOrderRepository) UpdateEstado(ctx context.Context, p *order.Pedido) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockOrderRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountByEstado(ctx context.Context) (map[order.Estado]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[order.Estado]int64), args.Error(1)
}

func (m *MockOrderRepository) TotalVentas(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockTicketSyncRepository is a mock implementation of order.TicketSyncRepository
type MockTicketSyncRepository struct {
	mock.Mock
}

func (m *MockTicketSyncRepository) Upsert(ctx context.Context, items []order.TicketSync) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockTicketSyncRepository) List(ctx context.Context) ([]order.TicketSync, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.TicketSync), args.Error(1)
}

// recordingPublisher collects the events written to the outbox
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

// fakeScope runs fn against the given repositories and drops the events
// when fn fails, like a rollback would.
type fakeScope struct {
	orders    order.Repository
	committed []shared.DomainEvent
	err       error
}

type fakeRepos struct {
	orders order.Repository
	events *recordingPublisher
}

func (r fakeRepos) Orders() order.Repository { return r.orders }
func (r fakeRepos) Events() shared.EventPublisher { return r.events }

func (s *fakeScope) Execute(ctx context.Context, fn func(TransactionalRepositories) error) error {
	if s.err != nil {
		return s.err
	}
	pub := &recordingPublisher{}
	if err := fn(fakeRepos{orders: s.orders, events: pub}); err != nil {
		return err
	}
	s.committed = append(s.committed, pub.events...)
	return nil
}

var errBoom = errors.New("boom")

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

type countingNotifier struct{ n int }

func (c *countingNotifier) Notify() { c.n++ }
