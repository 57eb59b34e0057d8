package ticketing

import (
	"context"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
)

// TransactionScope runs ticket writes and their outbox entries in one transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories sharing one transaction
type TransactionalRepositories interface {
	Tickets() ticket.Repository
	Registro() ticket.RegistroRepository
	// Events writes domain events to the outbox inside the transaction
	Events() shared.EventPublisher
}
