package storefront

import (
	"context"

	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/shared"
)

// TransactionScope runs checkout writes atomically: the order row and its
// outbox entry are committed or rolled back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories sharing one transaction
type TransactionalRepositories interface {
	Orders() order.Repository
	// Events writes domain events to the outbox inside the transaction
	Events() shared.EventPublisher
}
