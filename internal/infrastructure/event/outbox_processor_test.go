package event

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/infrastructure/config"
	"github.com/belgrano/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type processorFixture struct {
	db        *gorm.DB
	bus       *InMemoryEventBus
	repo      *GormOutboxRepository
	handler   *testHandler
	processor *OutboxProcessor
	logs      *observer.ObservedLogs
}

func newProcessorFixture(t *testing.T) *processorFixture {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)

	serializer := NewEventSerializer()
	serializer.Register("order.confirmed", &testEvent{})

	core, logs := observer.New(zap.DebugLevel)
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("order.confirmed")
	bus.Subscribe(handler)

	cfg := DefaultOutboxProcessorConfig()
	cfg.BaseBackoff = time.Millisecond
	return &processorFixture{
		db:        db,
		bus:       bus,
		repo:      repo,
		handler:   handler,
		processor: NewOutboxProcessor(repo, bus, serializer, cfg, zap.New(core)),
		logs:      logs,
	}
}

func (f *processorFixture) enqueue(t *testing.T, numero string, maxRetries int) *shared.OutboxEntry {
	t.Helper()
	ev := newTestEvent("order.confirmed", numero)
	payload, err := NewEventSerializer().Serialize(ev)
	require.NoError(t, err)
	e := shared.NewOutboxEntry(ev, payload)
	e.MaxRetries = maxRetries
	require.NoError(t, f.repo.Save(context.Background(), e))
	return e
}

func TestOutboxProcessor_DeliversPending(t *testing.T) {
	f := newProcessorFixture(t)
	e := f.enqueue(t, "PED-1", 5)

	res := f.processor.ProcessBatch(context.Background())
	assert.Equal(t, BatchResult{Sent: 1}, res)
	assert.Equal(t, 1, f.handler.count())

	got, err := f.repo.FindByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, got.Status)
	assert.NotNil(t, got.ProcessedAt)

	assert.Equal(t, BatchResult{}, f.processor.ProcessBatch(context.Background()))
}

func TestOutboxProcessor_RetriesWithBackoff(t *testing.T) {
	f := newProcessorFixture(t)
	e := f.enqueue(t, "PED-2", 5)
	f.handler.failNext(errors.New("tickets unavailable"))

	res := f.processor.ProcessBatch(context.Background())
	assert.Equal(t, 1, res.Failed)

	got, err := f.repo.FindByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusFailed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.NextRetryAt)
	assert.Equal(t, 1, f.logs.FilterMessage("outbox delivery failed, will retry").Len())

	require.Eventually(t, func() bool {
		return f.processor.ProcessBatch(context.Background()).Sent == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, f.handler.count())
}

func TestOutboxProcessor_DeadLetter(t *testing.T) {
	f := newProcessorFixture(t)
	e := f.enqueue(t, "PED-3", 1)
	f.handler.failNext(errors.New("rejected"))

	res := f.processor.ProcessBatch(context.Background())
	assert.Equal(t, 1, res.Dead)

	got, err := f.repo.FindByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDead())
	entries := f.logs.FilterMessage("outbox entry moved to dead letter").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "PED-3", entries[0].ContextMap()["aggregate_id"])
}

func TestOutboxProcessor_UndecodablePayloadFails(t *testing.T) {
	f := newProcessorFixture(t)
	e := shared.NewOutboxEntry(newTestEvent("unregistered", "PED-4"), []byte(`{}`))
	require.NoError(t, f.repo.Save(context.Background(), e))

	res := f.processor.ProcessBatch(context.Background())
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, f.handler.count())
}

func TestOutboxProcessor_StartNotifyStop(t *testing.T) {
	f := newProcessorFixture(t)
	f.processor.config.PollInterval = time.Hour

	require.NoError(t, f.processor.Start(context.Background()))
	f.enqueue(t, "PED-5", 5)
	f.processor.Notify()

	require.Eventually(t, func() bool { return f.handler.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.processor.Stop(ctx))
}

func TestOutboxProcessorConfigFrom(t *testing.T) {
	cfg := OutboxProcessorConfigFrom(config.OutboxConfig{
		BatchSize:       25,
		PollInterval:    time.Second,
		BaseBackoff:     3 * time.Second,
		CleanupEnabled:  true,
		Retention:       time.Hour,
		CleanupInterval: time.Minute,
	})
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 3*time.Second, cfg.BaseBackoff)
	assert.Equal(t, time.Hour, cfg.CleanupRetention)
}

func TestOutboxProcessor_PermanentFailureDeadLettersAtOnce(t *testing.T) {
	f := newProcessorFixture(t)
	e := f.enqueue(t, "PED-6", 5)
	f.handler.failNext(fmt.Errorf("HTTP 400: %w", shared.ErrPermanentDelivery))

	res := f.processor.ProcessBatch(context.Background())
	assert.Equal(t, 1, res.Dead)

	got, err := f.repo.FindByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDead())
	assert.Equal(t, 1, got.RetryCount)
}

// stoppingHandler simulates the process shutting down while it delivers
type stoppingHandler struct {
	cancel context.CancelFunc
}

func (h *stoppingHandler) Handle(ctx context.Context, _ shared.DomainEvent) error {
	h.cancel()
	return ctx.Err()
}

func (h *stoppingHandler) EventTypes() []string { return []string{"order.confirmed"} }

func (f *processorFixture) status(t *testing.T, id uuid.UUID) shared.OutboxStatus {
	t.Helper()
	got, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return got.Status
}

func TestOutboxProcessor_ShutdownMidDeliveryIsRedelivered(t *testing.T) {
	f := newProcessorFixture(t)
	a, b := f.enqueue(t, "PED-7", 5), f.enqueue(t, "PED-8", 5)

	ctx, cancel := context.WithCancel(context.Background())
	stopping := &stoppingHandler{cancel: cancel}
	f.bus.Subscribe(stopping)

	res := f.processor.ProcessBatch(ctx)
	assert.Equal(t, BatchResult{Failed: 1}, res)
	statuses := []shared.OutboxStatus{f.status(t, a.ID), f.status(t, b.ID)}
	assert.ElementsMatch(t, []shared.OutboxStatus{shared.OutboxStatusFailed, shared.OutboxStatusPending}, statuses,
		"the interrupted entry is recorded as failed and the untried one is released")
	assert.Equal(t, 1, f.logs.FilterMessage("released outbox entries on shutdown").Len())

	f.bus.Unsubscribe(stopping)
	require.Eventually(t, func() bool {
		f.processor.ProcessBatch(context.Background())
		return f.status(t, a.ID) == shared.OutboxStatusSent && f.status(t, b.ID) == shared.OutboxStatusSent
	}, time.Second, 5*time.Millisecond)
}

func TestOutboxProcessor_ReclaimsExpiredLease(t *testing.T) {
	f := newProcessorFixture(t)
	e := f.enqueue(t, "PED-9", 5)

	claimed, err := f.repo.MarkProcessing(context.Background(), []uuid.UUID{e.ID}, time.Now())
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	assert.Equal(t, BatchResult{}, f.processor.ProcessBatch(context.Background()), "a fresh claim is left alone")
	assert.Equal(t, shared.OutboxStatusProcessing, f.status(t, e.ID))

	require.NoError(t, f.db.Model(&models.OutboxEntryModel{}).
		Where("id = ?", e.ID).
		UpdateColumn("updated_at", time.Now().Add(-2*shared.DefaultProcessingLease)).Error)

	assert.Equal(t, BatchResult{Sent: 1}, f.processor.ProcessBatch(context.Background()))
	assert.Equal(t, shared.OutboxStatusSent, f.status(t, e.ID))
	assert.Equal(t, 1, f.handler.count())
	assert.Equal(t, 1, f.logs.FilterMessage("reclaiming outbox entries past their processing lease").Len())
}

func TestOutboxProcessor_MixedFailuresStayRetryable(t *testing.T) {
	f := newProcessorFixture(t)
	e := f.enqueue(t, "PED-10", 5)
	f.handler.failNext(fmt.Errorf("HTTP 422: %w", shared.ErrPermanentDelivery))
	flaky := newTestHandler("order.confirmed")
	flaky.failNext(errors.New("tickets unavailable"))
	f.bus.Subscribe(flaky)

	res := f.processor.ProcessBatch(context.Background())
	assert.Equal(t, BatchResult{Failed: 1}, res)
	assert.Equal(t, shared.OutboxStatusFailed, f.status(t, e.ID))

	require.Eventually(t, func() bool {
		return f.processor.ProcessBatch(context.Background()).Sent == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, flaky.count())
}
