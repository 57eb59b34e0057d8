package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/belgrano/backend/internal/domain/cart"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the stores selected by configuration. Close releases the
// shared Redis client when one was opened.
type Stores struct {
	Idempotency shared.IdempotencyStore
	Carts       cart.Store
	client      *redis.Client
}

// Close releases the stores
func (s *Stores) Close() error {
	var errs []error
	if _, viaRedis := s.Idempotency.(*RedisIdempotencyStore); !viaRedis {
		errs = append(errs, s.Idempotency.Close())
	}
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	return errors.Join(errs...)
}

// Redis returns the shared client, nil when the stores live in memory
func (s *Stores) Redis() *redis.Client {
	return s.client
}

// NewStores picks memory or Redis backed stores. With redis.enabled the cart
// store always uses Redis; the idempotency store follows idempotency.backend.
func NewStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	if !cfg.Redis.Enabled {
		if cfg.Idempotency.Backend == shared.IdempotencyBackendRedis {
			return nil, fmt.Errorf("idempotency backend redis requires redis.enabled")
		}
		logger.Info("using in-memory idempotency and cart stores")
		return &Stores{
			Idempotency: NewInMemoryIdempotencyStore(),
			Carts:       NewInMemoryCartStore(),
		}, nil
	}

	client, err := NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	s := &Stores{Carts: NewRedisCartStore(client, DefaultCartTTL), client: client}
	if cfg.Idempotency.Backend == shared.IdempotencyBackendRedis {
		s.Idempotency = NewRedisIdempotencyStore(client, "")
		logger.Info("using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
	} else {
		s.Idempotency = NewInMemoryIdempotencyStore()
	}
	return s, nil
}
