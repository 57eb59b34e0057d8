package persistence

import (
	"context"

	"github.com/belgrano/backend/internal/application/storefront"
	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"gorm.io/gorm"
)

// StorefrontTransactionScope implements storefront.TransactionScope with GORM transactions
type StorefrontTransactionScope struct {
	db    *gorm.DB
	saver shared.OutboxEventSaver
}

// NewStorefrontTransactionScope creates a scope whose Events() write through saver
func NewStorefrontTransactionScope(db *gorm.DB, saver shared.OutboxEventSaver) *StorefrontTransactionScope {
	return &StorefrontTransactionScope{db: db, saver: saver}
}

// Execute runs fn in a transaction; an error from fn rolls everything back
func (s *StorefrontTransactionScope) Execute(ctx context.Context, fn func(repos storefront.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{tx: tx, saver: s.saver})
	})
}

// TicketingTransactionScope implements ticketing.TransactionScope with GORM transactions
type TicketingTransactionScope struct {
	db    *gorm.DB
	saver shared.OutboxEventSaver
}

// NewTicketingTransactionScope creates a scope whose Events() write through saver
func NewTicketingTransactionScope(db *gorm.DB, saver shared.OutboxEventSaver) *TicketingTransactionScope {
	return &TicketingTransactionScope{db: db, saver: saver}
}

// Execute runs fn in a transaction; an error from fn rolls everything back
func (s *TicketingTransactionScope) Execute(ctx context.Context, fn func(repos ticketing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{tx: tx, saver: s.saver})
	})
}

// txRepositories hands out repositories bound to one transaction
type txRepositories struct {
	tx    *gorm.DB
	saver shared.OutboxEventSaver
}

func (r *txRepositories) Orders() order.Repository {
	return NewGormOrderRepository(r.tx)
}

func (r *txRepositories) Tickets() ticket.Repository {
	return NewGormTicketRepository(r.tx)
}

func (r *txRepositories) Registro() ticket.RegistroRepository {
	return NewGormRegistroRepository(r.tx)
}

func (r *txRepositories) Events() shared.EventPublisher {
	return txEventPublisher{tx: r.tx, saver: r.saver}
}

// txEventPublisher adapts an OutboxEventSaver to EventPublisher for one transaction
type txEventPublisher struct {
	tx    *gorm.DB
	saver shared.OutboxEventSaver
}

func (p txEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return p.saver.SaveEvents(ctx, p.tx, events...)
}

var (
	_ storefront.TransactionScope = (*StorefrontTransactionScope)(nil)
	_ ticketing.TransactionScope  = (*TicketingTransactionScope)(nil)
)
