package storefront

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/belgrano/backend/internal/domain/cart"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var numeroPattern = regexp.MustCompile(`^PED-20260314-[0-9A-F]{8}$`)

type checkoutFixture struct {
	svc       *CheckoutService
	orders    *MockOrderRepository
	customers *memCustomers
	carts     *cache.InMemoryCartStore
	scope     *fakeScope
	notifier  *countingNotifier
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		orders:    new(MockOrderRepository),
		customers: newMemCustomers(),
		carts:     cache.NewInMemoryCartStore(),
		notifier:  &countingNotifier{},
	}
	f.scope = &fakeScope{orders: f.orders}
	f.svc = NewCheckoutService(f.scope, f.orders, f.customers, f.carts, staticSource{cat: testCatalog()}, f.notifier, nil, zap.NewNop())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *checkoutFixture) fillCart(t *testing.T, id string) {
	t.Helper()
	c := cart.New(id)
	c.Add("arroz", 2)
	c.Add("aceite", 1)
	require.NoError(t, f.carts.Save(context.Background(), c))
}

func (f *checkoutFixture) confirmed(t *testing.T) *order.PedidoConfirmadoEvent {
	t.Helper()
	require.Len(t, f.scope.committed, 1)
	ev, ok := f.scope.committed[0].(*order.PedidoConfirmadoEvent)
	require.True(t, ok)
	return ev
}

func TestCheckout_RecomputesTotalAndWritesOutboxEvent(t *testing.T) {
	f := newCheckoutFixture()
	u := f.customers.addCliente("juana pérez", "juana@example.com")
	f.fillCart(t, "c1")
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*order.Pedido")).
		Run(func(args mock.Arguments) { args.Get(1).(*order.Pedido).ID = 41 }).
		Return(nil)

	got, err := f.svc.Checkout(context.Background(), CheckoutInput{
		UsuarioID:        u.ID,
		CartID:           "c1",
		DireccionEntrega: "Belgrano 123",
	})
	require.NoError(t, err)

	assert.Regexp(t, numeroPattern, got.NumeroPedido)
	assert.True(t, decimal.NewFromInt(1800).Equal(got.Total))
	assert.Equal(t, "pendiente", got.Estado)
	assert.Equal(t, order.DefaultMetodoPago, got.MetodoPago)
	require.Len(t, got.Items, 2)

	ev := f.confirmed(t)
	assert.Equal(t, uint(41), ev.PedidoID)
	assert.Equal(t, got.NumeroPedido, ev.AggregateID())
	p := ev.Ticket
	assert.Equal(t, got.NumeroPedido, p.Numero)
	assert.True(t, decimal.NewFromInt(1800).Equal(p.Total))
	assert.Equal(t, "Juana Pérez", p.ClienteNombre)
	assert.Equal(t, "Belgrano 123", p.ClienteDireccion)
	assert.Equal(t, "normal", p.Prioridad)
	assert.Equal(t, "cliente", p.TipoCliente)
	assert.Equal(t, "pendiente", p.Estado)
	require.Len(t, p.Productos, 2)
	assert.Equal(t, "Arroz 1kg", p.Productos[0].Nombre)
	assert.Equal(t, 2, p.Productos[0].Cantidad)
	assert.True(t, decimal.NewFromInt(1000).Equal(p.Productos[0].Subtotal))

	c, _ := f.carts.Get(context.Background(), "c1")
	assert.True(t, c.IsEmpty(), "cart is cleared after checkout")
	assert.Equal(t, 1, f.notifier.n)
	f.orders.AssertExpectations(t)
}

func TestCheckout_ComercianteGetsAltaAndBusinessDetails(t *testing.T) {
	f := newCheckoutFixture()
	u := f.customers.addComerciante("pedro", "pedro@example.com", "Almacén Don Pedro")
	f.fillCart(t, "c2")
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Checkout(context.Background(), CheckoutInput{
		UsuarioID: u.ID, CartID: "c2", DireccionEntrega: "Cabildo 900", Notas: "tocar timbre",
	})
	require.NoError(t, err)

	p := f.confirmed(t).Ticket
	assert.Equal(t, "alta", p.Prioridad)
	assert.Equal(t, "comerciante", p.TipoCliente)
	assert.Equal(t, "Almacén Don Pedro - Pedro", p.ClienteNombre)
	assert.True(t, strings.HasPrefix(p.Indicaciones, "COMERCIANTE - Negocio: Almacén Don Pedro"))
	assert.True(t, strings.HasSuffix(p.Indicaciones, "tocar timbre"))
}

func TestCheckout_Rejections(t *testing.T) {
	f := newCheckoutFixture()
	u := f.customers.addCliente("ana", "ana@example.com")
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, CheckoutInput{CartID: "c", DireccionEntrega: "x"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = f.svc.Checkout(ctx, CheckoutInput{UsuarioID: 999, CartID: "c", DireccionEntrega: "x"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = f.svc.Checkout(ctx, CheckoutInput{UsuarioID: u.ID, CartID: "empty", DireccionEntrega: "x"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	f.fillCart(t, "c3")
	_, err = f.svc.Checkout(ctx, CheckoutInput{UsuarioID: u.ID, CartID: "c3", DireccionEntrega: "  "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	assert.Empty(t, f.scope.committed)
	f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCheckout_TransactionFailureKeepsCart(t *testing.T) {
	f := newCheckoutFixture()
	u := f.customers.addCliente("ana", "ana@example.com")
	f.fillCart(t, "c4")
	f.orders.On("Save", mock.Anything, mock.Anything).Return(errBoom)

	_, err := f.svc.Checkout(context.Background(), CheckoutInput{UsuarioID: u.ID, CartID: "c4", DireccionEntrega: "x"})
	assert.Equal(t, "INTERNAL_ERROR", shared.CodeOf(err))
	assert.Empty(t, f.scope.committed)
	assert.Zero(t, f.notifier.n)

	c, _ := f.carts.Get(context.Background(), "c4")
	assert.Equal(t, 3, c.Count())
}

func TestCheckout_Repeat(t *testing.T) {
	f := newCheckoutFixture()
	u := f.customers.addCliente("ana", "ana@example.com")
	orig, err := order.NewPedido(order.NewPedidoParams{
		Numero:    "PED-20260101-00000001",
		UsuarioID: u.ID,
		Items: []order.Item{
			{ID: 7, ProductoID: "leche", Nombre: "Leche", Cantidad: 3, PrecioUnitario: decimal.NewFromInt(300)},
		},
		DireccionEntrega: "Juramento 55",
	})
	require.NoError(t, err)
	orig.ID = 5
	f.orders.On("FindByID", mock.Anything, uint(5)).Return(orig, nil)
	f.orders.On("FindByID", mock.Anything, uint(6)).Return(nil, shared.ErrNotFound)
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Repeat(context.Background(), u.ID, 5)
	require.NoError(t, err)
	assert.NotEqual(t, orig.Numero, got.NumeroPedido)
	assert.Regexp(t, numeroPattern, got.NumeroPedido)
	assert.True(t, decimal.NewFromInt(900).Equal(got.Total))
	assert.Contains(t, got.Notas, orig.Numero)
	assert.Equal(t, got.NumeroPedido, f.confirmed(t).Ticket.Numero)

	_, err = f.svc.Repeat(context.Background(), u.ID, 6)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	other := f.customers.addCliente("otro", "otro@example.com")
	_, err = f.svc.Repeat(context.Background(), other.ID, 5)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
