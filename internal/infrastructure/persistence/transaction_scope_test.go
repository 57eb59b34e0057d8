package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/belgrano/backend/internal/application/storefront"
	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// rowSaver writes outbox rows through the transaction it is handed
type rowSaver struct{}

func (rowSaver) SaveEvents(ctx context.Context, tx any, events ...shared.DomainEvent) error {
	db := tx.(*gorm.DB)
	for _, e := range events {
		m := models.OutboxEntryModelFromDomain(shared.NewOutboxEntry(e, []byte(`{}`)))
		if err := db.WithContext(ctx).Create(m).Error; err != nil {
			return err
		}
	}
	return nil
}

func countOutbox(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.OutboxEntryModel{}).Count(&n).Error)
	return n
}

func TestStorefrontTransactionScope(t *testing.T) {
	db := setupStorefrontDB(t)
	scope := NewStorefrontTransactionScope(db, rowSaver{})
	ctx := context.Background()

	t.Run("commit stores order and event together", func(t *testing.T) {
		p := newTestPedido(t, 1)
		err := scope.Execute(ctx, func(repos storefront.TransactionalRepositories) error {
			if err := repos.Orders().Save(ctx, p); err != nil {
				return err
			}
			return repos.Events().Publish(ctx, order.NewPedidoConfirmadoEvent(p, order.TicketPayload{Numero: p.Numero}))
		})
		require.NoError(t, err)

		_, err = NewGormOrderRepository(db).FindByNumero(ctx, p.Numero)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), countOutbox(t, db))
	})

	t.Run("error rolls back both", func(t *testing.T) {
		p := newTestPedido(t, 1)
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos storefront.TransactionalRepositories) error {
			require.NoError(t, repos.Orders().Save(ctx, p))
			require.NoError(t, repos.Events().Publish(ctx, order.NewPedidoConfirmadoEvent(p, order.TicketPayload{Numero: p.Numero})))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = NewGormOrderRepository(db).FindByNumero(ctx, p.Numero)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, int64(1), countOutbox(t, db))
	})
}

func TestTicketingTransactionScope(t *testing.T) {
	db := setupTicketingDB(t)
	scope := NewTicketingTransactionScope(db, rowSaver{})
	ctx := context.Background()

	tk := newTestTicket(t, "PED-TX-1", "cliente", "Repartidor3")
	err := scope.Execute(ctx, func(repos ticketing.TransactionalRepositories) error {
		if err := repos.Tickets().Save(ctx, tk); err != nil {
			return err
		}
		return repos.Events().Publish(ctx, ticket.NewTicketCreadoEvent(tk))
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countOutbox(t, db))

	err = scope.Execute(ctx, func(repos ticketing.TransactionalRepositories) error {
		if err := tk.ChangeEstado(ticket.EstadoEntregado); err != nil {
			return err
		}
		if err := repos.Tickets().Save(ctx, tk); err != nil {
			return err
		}
		reg, err := tk.Archive()
		if err != nil {
			return err
		}
		if err := repos.Registro().Archive(ctx, reg); err != nil {
			return err
		}
		return repos.Events().Publish(ctx, ticket.NewTicketArchivadoEvent(tk))
	})
	require.NoError(t, err)

	_, err = NewGormTicketRepository(db).FindByNumero(ctx, "PED-TX-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, total, err := NewGormRegistroRepository(db).List(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(2), countOutbox(t, db))
}
