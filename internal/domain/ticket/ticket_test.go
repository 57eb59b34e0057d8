package ticket

import (
	"errors"
	"testing"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() NewTicketParams {
	total := decimal.NewFromInt(1800)
	return NewTicketParams{
		Numero:           "PED-20250115-1A2B3C4D",
		ClienteNombre:    "Ana Perez",
		ClienteDireccion: "Belgrano 123",
		Productos: []Producto{
			{Nombre: "Arroz", Cantidad: 2, Precio: decimal.NewFromInt(500), Subtotal: decimal.NewFromInt(1000)},
			{Nombre: "Aceite", Cantidad: 1, Precio: decimal.NewFromInt(800), Subtotal: decimal.NewFromInt(800)},
		},
		Total: &total,
	}
}

func TestNewTicket(t *testing.T) {
	t.Run("valid payload builds pending ticket", func(t *testing.T) {
		tk, err := NewTicket(validParams())
		require.NoError(t, err)
		assert.Equal(t, EstadoPendiente, tk.Estado)
		assert.Equal(t, EnvioPendiente, tk.EstadoEnvio)
		assert.Equal(t, PrioridadNormal, tk.Prioridad)
		assert.True(t, tk.Total.Equal(decimal.NewFromInt(1800)))
		assert.Empty(t, tk.Repartidor)
	})

	t.Run("merchant forces alta", func(t *testing.T) {
		p := validParams()
		p.TipoCliente = "comerciante"
		p.Prioridad = "normal"
		tk, err := NewTicket(p)
		require.NoError(t, err)
		assert.Equal(t, PrioridadAlta, tk.Prioridad)
		assert.Equal(t, TipoClienteComerciante, tk.TipoCliente)
	})

	t.Run("terminal estado from sender is ignored", func(t *testing.T) {
		p := validParams()
		p.Estado = "entregado"
		tk, err := NewTicket(p)
		require.NoError(t, err)
		assert.Equal(t, EstadoPendiente, tk.Estado)
	})

	missing := map[string]func(*NewTicketParams){
		"cliente_nombre": func(p *NewTicketParams) { p.ClienteNombre = "  " },
		"productos":      func(p *NewTicketParams) { p.Productos = nil },
		"total":          func(p *NewTicketParams) { p.Total = nil },
		"numero":         func(p *NewTicketParams) { p.Numero = "" },
	}
	for field, mutate := range missing {
		t.Run("missing "+field, func(t *testing.T) {
			p := validParams()
			mutate(&p)
			_, err := NewTicket(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
			assert.Contains(t, err.Error(), field)
		})
	}

	t.Run("negative total", func(t *testing.T) {
		p := validParams()
		neg := decimal.NewFromInt(-1)
		p.Total = &neg
		_, err := NewTicket(p)
		assert.Error(t, err)
	})
}

func TestTicket_ChangeEstado(t *testing.T) {
	tk, err := NewTicket(validParams())
	require.NoError(t, err)

	require.NoError(t, tk.ChangeEstado(EstadoEnPreparacion))
	assert.Nil(t, tk.FechaEnvio)

	require.NoError(t, tk.ChangeEstado(EstadoEnCamino))
	assert.Equal(t, EnvioEnEnvio, tk.EstadoEnvio)
	require.NotNil(t, tk.FechaEnvio)

	require.NoError(t, tk.ChangeEstado(EstadoEnCamino), "same estado is a no-op")

	require.NoError(t, tk.ChangeEstado(EstadoEntregado))
	assert.Equal(t, EnvioEntregado, tk.EstadoEnvio)
	require.NotNil(t, tk.FechaEntrega)

	err = tk.ChangeEstado(EstadoPendiente)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	err = tk.ChangeEstado(Estado("perdido"))
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestTicket_Update(t *testing.T) {
	tk, err := NewTicket(validParams())
	require.NoError(t, err)
	tk.ID = 7

	estado := EstadoEnCamino
	prioridad := PrioridadAlta
	indicaciones := ""
	require.NoError(t, tk.Update(UpdateParams{Estado: &estado, Prioridad: &prioridad, Indicaciones: &indicaciones}))

	assert.Equal(t, EstadoEnCamino, tk.Estado)
	assert.Equal(t, PrioridadAlta, tk.Prioridad)
	events := tk.GetDomainEvents()
	require.Len(t, events, 1)
	ev, ok := events[0].(*TicketActualizadoEvent)
	require.True(t, ok)
	assert.Equal(t, uint(7), ev.TicketID)
	assert.Equal(t, tk.Numero, ev.AggregateID())
	assert.Equal(t, EstadoEnCamino, ev.Estado)

	bad := Prioridad("urgente")
	assert.Error(t, tk.Update(UpdateParams{Prioridad: &bad}))
}

func TestTicket_AssignRepartidor(t *testing.T) {
	pool := NewCourierPool()
	tk, err := NewTicket(validParams())
	require.NoError(t, err)

	require.NoError(t, tk.AssignRepartidor("Repartidor2", pool))
	assert.Equal(t, "Repartidor2", tk.Repartidor)
	assert.Len(t, tk.GetDomainEvents(), 1)

	assert.Error(t, tk.AssignRepartidor("Fulano", pool))

	require.NoError(t, tk.ChangeEstado(EstadoCancelado))
	err = tk.AssignRepartidor("Repartidor1", pool)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestTicket_Archive(t *testing.T) {
	tk, err := NewTicket(validParams())
	require.NoError(t, err)
	tk.ID = 3
	tk.Repartidor = "Repartidor1"

	_, err = tk.Archive()
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	require.NoError(t, tk.ChangeEstado(EstadoEntregado))
	reg, err := tk.Archive()
	require.NoError(t, err)
	assert.Equal(t, uint(3), reg.TicketID)
	assert.Equal(t, EstadoEntregado, reg.EstadoFinal)
	assert.Equal(t, EnvioEntregado, reg.EstadoEnvioFinal)
	assert.Equal(t, "Repartidor1", reg.Repartidor)
	assert.Len(t, reg.Productos, 2)
	assert.False(t, reg.FechaRegistro.IsZero())
}
