package cache

import (
	"context"
	"testing"

	"github.com/belgrano/backend/internal/domain/cart"
	"github.com/belgrano/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryCartStore(t *testing.T) {
	store := NewInMemoryCartStore()
	ctx := context.Background()

	empty, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "abc", empty.ID)

	c := cart.New("abc")
	c.Add("arroz-1kg", 2)
	c.Add("aceite-900", 1)
	require.NoError(t, store.Save(ctx, c))

	c.Add("yerba", 1)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count(), "the store keeps its own copy")

	got.Clear()
	again, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Count())

	require.NoError(t, store.Delete(ctx, "abc"))
	gone, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, gone.IsEmpty())
}

func TestNewStores(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{Idempotency: config.IdempotencyConfig{Backend: "memory"}}
		s, err := NewStores(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &InMemoryIdempotencyStore{}, s.Idempotency)
		assert.IsType(t, &InMemoryCartStore{}, s.Carts)
		assert.Nil(t, s.Redis())
		assert.NoError(t, s.Close())
	})

	t.Run("redis backend without redis", func(t *testing.T) {
		cfg := &config.Config{Idempotency: config.IdempotencyConfig{Backend: "redis"}}
		_, err := NewStores(ctx, cfg, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		cfg := &config.Config{
			Redis:       config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
			Idempotency: config.IdempotencyConfig{Backend: "redis"},
		}
		_, err := NewStores(ctx, cfg, zap.NewNop())
		assert.ErrorContains(t, err, "127.0.0.1:1")
	})
}
