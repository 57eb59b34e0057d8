// Package outbox exposes operator actions over the transactional outbox:
// delivery stats, the dead-letter queue and requeueing.
package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier wakes the delivery worker after entries are requeued
type Notifier interface {
	Notify()
}

// Service handles outbox administration
type Service struct {
	repo     shared.OutboxRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a new outbox admin service. notifier may be nil when
// the worker runs in another process.
func NewService(repo shared.OutboxRepository, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// EntryDTO is the operator view of an outbox entry
type EntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   string     `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// StatsDTO counts entries per status
type StatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// Stats returns entry counts per status
func (s *Service) Stats(ctx context.Context) (*StatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count outbox entries", zap.Error(err))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to get outbox stats")
	}
	st := &StatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	st.Total = st.Pending + st.Processing + st.Sent + st.Failed + st.Dead
	return st, nil
}

// DeadLetters lists dead entries one page at a time
func (s *Service) DeadLetters(ctx context.Context, page, pageSize int) (shared.Paginated[EntryDTO], error) {
	f := shared.DefaultFilter().WithPage(page, pageSize)
	page, pageSize = f.Page, f.PageSize

	entries, total, err := s.repo.FindDead(ctx, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to find dead letter entries", zap.Error(err))
		return shared.Paginated[EntryDTO]{}, shared.NewDomainError(shared.CodeInternal, "Failed to retrieve dead letter entries")
	}
	items := make([]EntryDTO, len(entries))
	for i, e := range entries {
		items[i] = toEntryDTO(e)
	}
	return shared.NewPaginated(items, total, page, pageSize), nil
}

// Entry returns one entry
func (s *Service) Entry(ctx context.Context, id uuid.UUID) (*EntryDTO, error) {
	e, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toEntryDTO(e)
	return &dto, nil
}

// Requeue moves a dead entry back to PENDING with a fresh retry budget
func (s *Service) Requeue(ctx context.Context, id uuid.UUID) (*EntryDTO, error) {
	e, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, err.Error())
	}
	if err := s.repo.Update(ctx, e); err != nil {
		s.logger.Error("Failed to requeue outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to requeue entry")
	}
	s.logger.Info("Dead letter entry requeued",
		zap.String("id", id.String()),
		zap.String("event_type", e.EventType),
		zap.String("aggregate_id", e.AggregateID))
	s.notify()

	dto := toEntryDTO(e)
	return &dto, nil
}

// RequeueAll requeues every dead entry and returns how many were moved
func (s *Service) RequeueAll(ctx context.Context) (int64, error) {
	var n int64
	for {
		// requeued entries leave the DEAD set, so page 1 always holds the rest
		entries, _, err := s.repo.FindDead(ctx, 1, shared.MaxPageSize)
		if err != nil {
			s.logger.Error("Failed to find dead letter entries", zap.Error(err))
			return n, shared.NewDomainError(shared.CodeInternal, "Failed to retrieve dead letter entries")
		}
		moved := 0
		for _, e := range entries {
			if e.ResetForRetry() != nil {
				continue
			}
			if err := s.repo.Update(ctx, e); err != nil {
				s.logger.Error("Failed to requeue outbox entry", zap.Error(err), zap.String("id", e.ID.String()))
				continue
			}
			moved++
		}
		n += int64(moved)
		if len(entries) < shared.MaxPageSize || moved == 0 {
			break
		}
	}
	s.logger.Info("Requeued dead letter entries", zap.Int64("count", n))
	if n > 0 {
		s.notify()
	}
	return n, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err == nil && e != nil {
		return e, nil
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		s.logger.Error("Failed to find outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, shared.NewDomainError(shared.CodeInternal, "Failed to retrieve outbox entry")
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, "Outbox entry not found")
}

func (s *Service) notify() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

func toEntryDTO(e *shared.OutboxEntry) EntryDTO {
	return EntryDTO{
		ID:            e.ID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Status:        string(e.Status),
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
	}
}
