package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	BaseDomainEvent
}

func TestNewOutboxEntry(t *testing.T) {
	base := NewBaseDomainEvent("order.confirmed", "Pedido", "PED-20250101-ABCDEF12")
	entry := NewOutboxEntry(&testEvent{BaseDomainEvent: base}, []byte(`{}`))

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, base.ID, entry.EventID)
	assert.Equal(t, "order.confirmed", entry.EventType)
	assert.Equal(t, "Pedido", entry.AggregateType)
	assert.Equal(t, "PED-20250101-ABCDEF12", entry.IdempotencyKey())
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, DefaultMaxRetries, entry.MaxRetries)
}

func TestOutboxEntry_MarkProcessing(t *testing.T) {
	t.Run("pending and failed entries can be claimed", func(t *testing.T) {
		for _, status := range []OutboxStatus{OutboxStatusPending, OutboxStatusFailed} {
			entry := &OutboxEntry{Status: status}
			require.NoError(t, entry.MarkProcessing())
			assert.Equal(t, OutboxStatusProcessing, entry.Status)
		}
	})

	t.Run("sent and dead entries cannot", func(t *testing.T) {
		for _, status := range []OutboxStatus{OutboxStatusSent, OutboxStatusDead, OutboxStatusProcessing} {
			entry := &OutboxEntry{Status: status}
			assert.ErrorIs(t, entry.MarkProcessing(), ErrOutboxNotClaimable)
		}
	})
}

func TestOutboxEntry_ResetForRetry(t *testing.T) {
	t.Run("resets dead letter entry for retry", func(t *testing.T) {
		entry := &OutboxEntry{
			ID:          uuid.New(),
			EventID:     uuid.New(),
			EventType:   "order.confirmed",
			AggregateID: "PED-20250101-00000001",
			Status:      OutboxStatusDead,
			RetryCount:  5,
			MaxRetries:  5,
			LastError:   "connection refused",
			CreatedAt:   time.Now().Add(-time.Hour),
			UpdatedAt:   time.Now().Add(-time.Minute),
		}

		err := entry.ResetForRetry()
		assert.NoError(t, err)
		assert.Equal(t, OutboxStatusPending, entry.Status)
		assert.Equal(t, 0, entry.RetryCount)
		assert.Empty(t, entry.LastError)
		assert.Nil(t, entry.NextRetryAt)
	})

	t.Run("fails for non-dead entry", func(t *testing.T) {
		for _, status := range []OutboxStatus{
			OutboxStatusPending,
			OutboxStatusProcessing,
			OutboxStatusSent,
			OutboxStatusFailed,
		} {
			entry := &OutboxEntry{ID: uuid.New(), Status: status}
			assert.ErrorIs(t, entry.ResetForRetry(), ErrOutboxNotDead)
		}
	})
}

func TestOutboxEntry_MarkFailed_MovesToDeadAfterMaxRetries(t *testing.T) {
	entry := &OutboxEntry{
		ID:         uuid.New(),
		Status:     OutboxStatusProcessing,
		RetryCount: 4,
		MaxRetries: 5,
	}

	entry.MarkFailed("final error")

	assert.Equal(t, OutboxStatusDead, entry.Status)
	assert.Equal(t, 5, entry.RetryCount)
	assert.Equal(t, "final error", entry.LastError)
	assert.True(t, entry.IsDead())
	assert.False(t, entry.CanRetry())
}

func TestOutboxEntry_MarkFailed_ExponentialBackoff(t *testing.T) {
	entry := &OutboxEntry{
		ID:         uuid.New(),
		Status:     OutboxStatusProcessing,
		MaxRetries: 5,
	}

	entry.MarkFailed("error 1")
	assert.Equal(t, OutboxStatusFailed, entry.Status)
	assert.True(t, entry.CanRetry())
	require.NotNil(t, entry.NextRetryAt)
	first := time.Until(*entry.NextRetryAt)
	assert.True(t, first > 0 && first <= 2*time.Second)

	entry.Status = OutboxStatusProcessing
	entry.MarkFailed("error 2")
	second := time.Until(*entry.NextRetryAt)
	assert.True(t, second > time.Second && second <= 3*time.Second)

	entry.Status = OutboxStatusProcessing
	entry.MarkFailed("error 3")
	third := time.Until(*entry.NextRetryAt)
	assert.True(t, third > 3*time.Second && third <= 5*time.Second)
}

func TestOutboxEntry_MarkFailedWithBackoff(t *testing.T) {
	entry := &OutboxEntry{Status: OutboxStatusProcessing, MaxRetries: 3}

	entry.MarkFailedWithBackoff("boom", 10*time.Second)
	require.NotNil(t, entry.NextRetryAt)
	wait := time.Until(*entry.NextRetryAt)
	assert.True(t, wait > 9*time.Second && wait <= 10*time.Second)
}

func TestOutboxEntry_MarkDead(t *testing.T) {
	entry := &OutboxEntry{Status: OutboxStatusProcessing, MaxRetries: 5}
	next := time.Now()
	entry.NextRetryAt = &next

	entry.MarkDead("rejected")
	assert.True(t, entry.IsDead())
	assert.Equal(t, 1, entry.RetryCount)
	assert.Nil(t, entry.NextRetryAt)
	assert.NoError(t, entry.ResetForRetry())
}

func TestOutboxBackoff(t *testing.T) {
	assert.Equal(t, time.Second, OutboxBackoff(1, time.Second))
	assert.Equal(t, 8*time.Second, OutboxBackoff(4, time.Second))
	assert.Equal(t, DefaultBaseBackoff, OutboxBackoff(0, 0))
	assert.Equal(t, MaxOutboxBackoff, OutboxBackoff(40, time.Minute))
}

func TestOutboxEntry_MarkSent(t *testing.T) {
	entry := &OutboxEntry{Status: OutboxStatusProcessing}
	next := time.Now()
	entry.NextRetryAt = &next

	entry.MarkSent()
	assert.Equal(t, OutboxStatusSent, entry.Status)
	require.NotNil(t, entry.ProcessedAt)
	assert.Nil(t, entry.NextRetryAt)
}

func TestOutboxEntry_LeaseAndRelease(t *testing.T) {
	now := time.Now()
	entry := &OutboxEntry{Status: OutboxStatusProcessing, RetryCount: 2, UpdatedAt: now.Add(-10 * time.Minute)}

	assert.True(t, entry.LeaseExpired(now, DefaultProcessingLease))
	assert.False(t, entry.LeaseExpired(now, time.Hour))
	assert.False(t, (&OutboxEntry{Status: OutboxStatusFailed, UpdatedAt: entry.UpdatedAt}).LeaseExpired(now, time.Minute))

	entry.Release()
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, 2, entry.RetryCount)

	dead := &OutboxEntry{Status: OutboxStatusDead}
	dead.Release()
	assert.Equal(t, OutboxStatusDead, dead.Status)
}

func TestIsPermanentDelivery(t *testing.T) {
	permanent := fmt.Errorf("HTTP 400: %w", ErrPermanentDelivery)
	transient := errors.New("connection refused")

	assert.False(t, IsPermanentDelivery(nil))
	assert.False(t, IsPermanentDelivery(transient))
	assert.True(t, IsPermanentDelivery(permanent))
	assert.True(t, IsPermanentDelivery(errors.Join(permanent, fmt.Errorf("encode: %w", ErrPermanentDelivery))))
	assert.False(t, IsPermanentDelivery(errors.Join(permanent, transient)), "one retryable handler keeps the entry alive")
}
