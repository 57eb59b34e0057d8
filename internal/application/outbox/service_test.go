package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOutboxRepo keeps entries in a map
type fakeOutboxRepo struct {
	entries map[uuid.UUID]*shared.OutboxEntry
	findErr error
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *fakeOutboxRepo) add(status shared.OutboxStatus) *shared.OutboxEntry {
	e := &shared.OutboxEntry{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     "order.confirmed",
		AggregateID:   "PED-20260115-ABCD1234",
		AggregateType: "Pedido",
		Status:        status,
		MaxRetries:    5,
		CreatedAt:     time.Now(),
	}
	if status == shared.OutboxStatusDead {
		e.RetryCount = 5
		e.LastError = "tickets service unavailable"
	}
	r.entries[e.ID] = e
	return e
}

func (r *fakeOutboxRepo) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *fakeOutboxRepo) FindPending(context.Context, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) FindRetryable(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) FindDead(_ context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead {
			dead = append(dead, e)
		}
	}
	start := (page - 1) * pageSize
	if start >= len(dead) {
		return nil, int64(len(dead)), nil
	}
	end := min(start+pageSize, len(dead))
	return dead[start:end], int64(len(dead)), nil
}

func (r *fakeOutboxRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOutboxRepo) FindStale(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkProcessing(context.Context, []uuid.UUID, time.Time) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) Update(_ context.Context, e *shared.OutboxEntry) error {
	r.entries[e.ID] = e
	return nil
}

func (r *fakeOutboxRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeOutboxRepo) CountByStatus(context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

type countingNotifier struct{ calls int }

func (n *countingNotifier) Notify() { n.calls++ }

func TestService_Stats(t *testing.T) {
	repo := newFakeOutboxRepo()
	for _, st := range []shared.OutboxStatus{
		shared.OutboxStatusPending, shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent, shared.OutboxStatusSent, shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	} {
		repo.add(st)
	}

	stats, err := NewService(repo, nil, zap.NewNop()).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatsDTO{Pending: 2, Processing: 1, Sent: 3, Failed: 1, Dead: 1, Total: 8}, *stats)
}

func TestService_DeadLetters(t *testing.T) {
	repo := newFakeOutboxRepo()
	for i := 0; i < 5; i++ {
		repo.add(shared.OutboxStatusDead)
	}
	repo.add(shared.OutboxStatusPending)
	svc := NewService(repo, nil, zap.NewNop())

	page, err := svc.DeadLetters(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 2)
	for _, e := range page.Items {
		assert.Equal(t, "DEAD", e.Status)
		assert.Equal(t, "PED-20260115-ABCD1234", e.AggregateID)
	}

	page, err = svc.DeadLetters(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, shared.MaxPageSize, page.PageSize)
	assert.Len(t, page.Items, 5)
}

func TestService_Requeue(t *testing.T) {
	repo := newFakeOutboxRepo()
	dead := repo.add(shared.OutboxStatusDead)
	notifier := &countingNotifier{}
	svc := NewService(repo, notifier, zap.NewNop())

	got, err := svc.Requeue(context.Background(), dead.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", got.Status)
	assert.Zero(t, got.RetryCount)
	assert.Empty(t, got.LastError)
	assert.Equal(t, 1, notifier.calls)
}

func TestService_Requeue_Errors(t *testing.T) {
	repo := newFakeOutboxRepo()
	pending := repo.add(shared.OutboxStatusPending)
	svc := NewService(repo, nil, zap.NewNop())

	_, err := svc.Requeue(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Requeue(context.Background(), pending.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	repo.findErr = errors.New("connection reset")
	_, err = svc.Entry(context.Background(), pending.ID)
	assert.Equal(t, "INTERNAL_ERROR", shared.CodeOf(err))
}

func TestService_RequeueAll(t *testing.T) {
	repo := newFakeOutboxRepo()
	for i := 0; i < 3; i++ {
		repo.add(shared.OutboxStatusDead)
	}
	pending := repo.add(shared.OutboxStatusPending)
	notifier := &countingNotifier{}

	n, err := NewService(repo, notifier, zap.NewNop()).RequeueAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, 1, notifier.calls)
	for id, e := range repo.entries {
		if id != pending.ID {
			assert.Equal(t, shared.OutboxStatusPending, e.Status)
		}
	}
}
