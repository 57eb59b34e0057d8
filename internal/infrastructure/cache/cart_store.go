package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/belgrano/backend/internal/domain/cart"
	"github.com/redis/go-redis/v9"
)

// DefaultCartTTL is how long an untouched cart survives
const DefaultCartTTL = 7 * 24 * time.Hour

// InMemoryCartStore keeps carts in process memory
type InMemoryCartStore struct {
	mu    sync.RWMutex
	carts map[string]cart.Cart
}

// NewInMemoryCartStore creates an empty store
func NewInMemoryCartStore() *InMemoryCartStore {
	return &InMemoryCartStore{carts: make(map[string]cart.Cart)}
}

// Get returns a copy of the stored cart, or an empty one
func (s *InMemoryCartStore) Get(ctx context.Context, id string) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[id]
	if !ok {
		return cart.New(id), nil
	}
	items := make([]cart.Item, len(c.Items))
	copy(items, c.Items)
	return &cart.Cart{ID: c.ID, Items: items}, nil
}

// Save stores a copy of c
func (s *InMemoryCartStore) Save(ctx context.Context, c *cart.Cart) error {
	items := make([]cart.Item, len(c.Items))
	copy(items, c.Items)

	s.mu.Lock()
	s.carts[c.ID] = cart.Cart{ID: c.ID, Items: items}
	s.mu.Unlock()
	return nil
}

// Delete removes a cart
func (s *InMemoryCartStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.carts, id)
	s.mu.Unlock()
	return nil
}

// RedisCartStore keeps carts as JSON values with a sliding TTL
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartStore creates a store; ttl <= 0 uses DefaultCartTTL
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &RedisCartStore{client: client, ttl: ttl}
}

func cartKey(id string) string { return "belgrano:carrito:" + id }

// Get loads a cart, or an empty one when the key is missing
func (s *RedisCartStore) Get(ctx context.Context, id string) (*cart.Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	c.ID = id
	return &c, nil
}

// Save writes the cart and refreshes its TTL
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, cartKey(c.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete removes a cart
func (s *RedisCartStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, cartKey(id)).Err()
}

var (
	_ cart.Store = (*InMemoryCartStore)(nil)
	_ cart.Store = (*RedisCartStore)(nil)
)
