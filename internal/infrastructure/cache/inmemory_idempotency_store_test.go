package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	isNew, err := store.MarkProcessed(ctx, "order.confirmed:PED-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "order.confirmed:PED-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, isNew)

	done, err := store.IsProcessed(ctx, "order.confirmed:PED-1")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = store.IsProcessed(ctx, "order.confirmed:PED-2")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	done, err := store.IsProcessed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, done)

	isNew, err := store.MarkProcessed(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "an expired key can be recorded again")
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store := newInMemoryIdempotencyStore(5 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Millisecond)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)

	require.Eventually(t, func() bool { return store.Size() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
