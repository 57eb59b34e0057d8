package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of an outbox entry.
//
//	PENDING -> PROCESSING -> SENT
//	                      -> FAILED  -> PROCESSING ...
//	                      -> DEAD    -> PENDING (operator requeue)
//	                      -> PENDING (released on shutdown)
//
// A PROCESSING entry whose lease expired (the worker died before writing
// the outcome) can be claimed again.
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
	// MaxOutboxBackoff caps the wait between two attempts
	MaxOutboxBackoff = time.Hour
	// DefaultProcessingLease is how long a claim holds before another pass
	// may take the entry over
	DefaultProcessingLease = 5 * time.Minute
)

var (
	// ErrPermanentDelivery marks a delivery failure that retrying cannot fix.
	// Handlers wrap it so the processor dead-letters the entry at once.
	ErrPermanentDelivery = errors.New("permanent delivery failure")

	ErrOutboxNotClaimable = errors.New("can only mark pending or failed entries as processing")
	ErrOutboxNotDead      = errors.New("can only retry dead letter entries")
)

// IsPermanentDelivery reports whether err leaves nothing worth retrying.
// For joined errors (several handlers failing on one event) every branch
// must be permanent; one transient failure keeps the entry retryable.
func IsPermanentDelivery(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		for _, e := range errs {
			if !IsPermanentDelivery(e) {
				return false
			}
		}
		return len(errs) > 0
	}
	return errors.Is(err, ErrPermanentDelivery)
}

// OutboxEntry is one domain event waiting to be delivered to the other
// service. AggregateID holds the order or ticket numero.
type OutboxEntry struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   string
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOutboxEntry wraps an already serialized event
func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// OutboxBackoff is the wait after the n-th failed attempt: base, 2*base,
// 4*base ... capped at MaxOutboxBackoff.
func OutboxBackoff(n int, base time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultBaseBackoff
	}
	if n < 1 {
		n = 1
	}
	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= MaxOutboxBackoff {
			return MaxOutboxBackoff
		}
	}
	return min(d, MaxOutboxBackoff)
}

// IdempotencyKey is the key receivers use to collapse redeliveries of the
// same aggregate.
func (e *OutboxEntry) IdempotencyKey() string {
	return e.AggregateID
}

func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed && e.RetryCount < e.MaxRetries
}

func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// MarkProcessing claims the entry for one delivery attempt
func (e *OutboxEntry) MarkProcessing() error {
	switch e.Status {
	case OutboxStatusPending, OutboxStatusFailed:
		e.setStatus(OutboxStatusProcessing)
		return nil
	}
	return ErrOutboxNotClaimable
}

// LeaseExpired reports whether a PROCESSING claim is older than lease
func (e *OutboxEntry) LeaseExpired(now time.Time, lease time.Duration) bool {
	return e.Status == OutboxStatusProcessing && e.UpdatedAt.Before(now.Add(-lease))
}

// Release hands a claimed entry back untried. The attempt is not counted.
func (e *OutboxEntry) Release() {
	if e.Status == OutboxStatusProcessing {
		e.setStatus(OutboxStatusPending)
	}
}

func (e *OutboxEntry) MarkSent() {
	e.setStatus(OutboxStatusSent)
	processed := e.UpdatedAt
	e.ProcessedAt = &processed
	e.NextRetryAt = nil
}

// MarkFailed records a failed attempt with the default base backoff
func (e *OutboxEntry) MarkFailed(errMsg string) {
	e.MarkFailedWithBackoff(errMsg, DefaultBaseBackoff)
}

// MarkFailedWithBackoff records a failed attempt. The entry goes DEAD once
// RetryCount reaches MaxRetries, otherwise FAILED until NextRetryAt.
func (e *OutboxEntry) MarkFailedWithBackoff(errMsg string, base time.Duration) {
	e.fail(errMsg)
	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		return
	}
	e.Status = OutboxStatusFailed
	next := e.UpdatedAt.Add(OutboxBackoff(e.RetryCount, base))
	e.NextRetryAt = &next
}

// MarkDead skips the remaining retries
func (e *OutboxEntry) MarkDead(errMsg string) {
	e.fail(errMsg)
	e.Status = OutboxStatusDead
}

// ResetForRetry gives a dead entry a fresh retry budget
func (e *OutboxEntry) ResetForRetry() error {
	if !e.IsDead() {
		return ErrOutboxNotDead
	}
	e.setStatus(OutboxStatusPending)
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	return nil
}

func (e *OutboxEntry) fail(errMsg string) {
	e.RetryCount++
	e.LastError = errMsg
	e.NextRetryAt = nil
	e.UpdatedAt = time.Now()
}

func (e *OutboxEntry) setStatus(s OutboxStatus) {
	e.Status = s
	e.UpdatedAt = time.Now()
}

// OutboxRepository persists outbox entries. Save runs inside the caller's
// transaction scope; the rest are used by the processor and the admin tools.
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	Update(ctx context.Context, entry *OutboxEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)

	// FindPending returns the oldest PENDING entries
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// FindRetryable returns FAILED entries whose NextRetryAt is before the given time
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	// FindStale returns PROCESSING entries last touched before the given time
	FindStale(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	// MarkProcessing claims ids and returns only the entries this caller won.
	// PENDING and FAILED rows are claimable, PROCESSING rows only when last
	// touched before staleBefore.
	MarkProcessing(ctx context.Context, ids []uuid.UUID, staleBefore time.Time) ([]*OutboxEntry, error)

	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
	// DeleteOlderThan removes SENT entries processed before the given time
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
