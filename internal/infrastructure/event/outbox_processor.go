package event

import (
	"context"
	"sync"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// persistTimeout bounds the write of a delivery outcome, which outlives the
// worker context so a shutdown mid-delivery does not strand the entry
const persistTimeout = 5 * time.Second

// OutboxProcessorConfig holds configuration for the outbox processor
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	BaseBackoff      time.Duration
	ProcessingLease  time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultOutboxProcessorConfig returns default configuration
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     2 * time.Second,
		BaseBackoff:      shared.DefaultBaseBackoff,
		ProcessingLease:  shared.DefaultProcessingLease,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// OutboxProcessorConfigFrom maps the service configuration
func OutboxProcessorConfigFrom(cfg config.OutboxConfig) OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        cfg.BatchSize,
		PollInterval:     cfg.PollInterval,
		BaseBackoff:      cfg.BaseBackoff,
		ProcessingLease:  cfg.ProcessingLease,
		CleanupEnabled:   cfg.CleanupEnabled,
		CleanupRetention: cfg.Retention,
		CleanupInterval:  cfg.CleanupInterval,
	}
}

// BatchResult summarizes one processing pass
type BatchResult struct {
	Sent   int
	Failed int
	Dead   int
}

// OutboxProcessor delivers outbox entries to the event bus in the
// background. Delivery is at-least-once: an entry stays retryable until a
// publish succeeds or it runs out of attempts and becomes dead.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	publisher  shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	publisher shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}
	if config.ProcessingLease <= 0 {
		config.ProcessingLease = shared.DefaultProcessingLease
	}
	return &OutboxProcessor{
		repo:       repo,
		publisher:  publisher,
		serializer: serializer,
		config:     config,
		logger:     logger,
		wake:       make(chan struct{}, 1),
	}
}

// Start starts the background loops
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled && p.config.CleanupInterval > 0 {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Duration("base_backoff", p.config.BaseBackoff),
	)
	return nil
}

// Stop cancels the loops and waits for the current pass to finish
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify asks the loop to run a pass now instead of waiting for the next tick
func (p *OutboxProcessor) Notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *OutboxProcessor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.wake:
		}
		p.ProcessBatch(ctx)
	}
}

// ProcessBatch runs one pass over pending entries, failed entries whose
// backoff has elapsed and claims abandoned past the processing lease.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) BatchResult {
	var result BatchResult
	now := time.Now()
	staleBefore := now.Add(-p.config.ProcessingLease)

	sources := []struct {
		what string
		find func() ([]*shared.OutboxEntry, error)
	}{
		{"pending", func() ([]*shared.OutboxEntry, error) { return p.repo.FindPending(ctx, p.config.BatchSize) }},
		{"retryable", func() ([]*shared.OutboxEntry, error) { return p.repo.FindRetryable(ctx, now, p.config.BatchSize) }},
		{"stale", func() ([]*shared.OutboxEntry, error) { return p.repo.FindStale(ctx, staleBefore, p.config.BatchSize) }},
	}
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		entries, err := src.find()
		if err != nil {
			p.logger.Error("failed to find outbox entries", zap.String("kind", src.what), zap.Error(err))
			return result
		}
		if src.what == "stale" && len(entries) > 0 {
			p.logger.Warn("reclaiming outbox entries past their processing lease",
				zap.Int("count", len(entries)),
				zap.Duration("lease", p.config.ProcessingLease),
			)
		}
		p.processEntries(ctx, entries, staleBefore, &result)
	}
	return result
}

func (p *OutboxProcessor) processEntries(ctx context.Context, entries []*shared.OutboxEntry, staleBefore time.Time, result *BatchResult) {
	if len(entries) == 0 {
		return
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids, staleBefore)
	if err != nil {
		p.logger.Error("failed to mark entries as processing", zap.Error(err))
		return
	}

	for i, entry := range claimed {
		if ctx.Err() != nil {
			p.release(ctx, claimed[i:])
			return
		}
		switch p.processEntry(ctx, entry) {
		case shared.OutboxStatusSent:
			result.Sent++
		case shared.OutboxStatusDead:
			result.Dead++
		default:
			result.Failed++
		}
	}
}

func (p *OutboxProcessor) processEntry(ctx context.Context, entry *shared.OutboxEntry) shared.OutboxStatus {
	ev, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.publisher.Publish(ctx, ev)
	}
	if err != nil {
		p.fail(ctx, entry, err)
		return entry.Status
	}

	entry.MarkSent()
	if err := p.persist(ctx, entry); err != nil {
		p.logger.Error("failed to mark entry as sent",
			zap.String("event_id", entry.EventID.String()),
			zap.Error(err),
		)
		return entry.Status
	}
	p.logger.Debug("outbox entry delivered",
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_id", entry.AggregateID),
	)
	return entry.Status
}

func (p *OutboxProcessor) fail(ctx context.Context, entry *shared.OutboxEntry, cause error) {
	if shared.IsPermanentDelivery(cause) {
		entry.MarkDead(cause.Error())
	} else {
		entry.MarkFailedWithBackoff(cause.Error(), p.config.BaseBackoff)
	}

	fields := []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_type", entry.AggregateType),
		zap.String("aggregate_id", entry.AggregateID),
		zap.Int("retry_count", entry.RetryCount),
		zap.Error(cause),
	}
	if entry.IsDead() {
		p.logger.Error("outbox entry moved to dead letter", fields...)
	} else {
		p.logger.Warn("outbox delivery failed, will retry",
			append(fields, zap.Timep("next_retry_at", entry.NextRetryAt))...)
	}

	if err := p.persist(ctx, entry); err != nil {
		p.logger.Error("failed to update entry", zap.Error(err))
	}
}

// release returns claimed but untried entries to PENDING on shutdown
func (p *OutboxProcessor) release(ctx context.Context, entries []*shared.OutboxEntry) {
	for _, entry := range entries {
		entry.Release()
		if err := p.persist(ctx, entry); err != nil {
			p.logger.Error("failed to release entry",
				zap.String("event_id", entry.EventID.String()),
				zap.Error(err),
			)
		}
	}
	p.logger.Info("released outbox entries on shutdown", zap.Int("count", len(entries)))
}

// persist writes the outcome even when ctx was cancelled mid-delivery.
// Anything it still fails to write is recovered through the lease.
func (p *OutboxProcessor) persist(ctx context.Context, entry *shared.OutboxEntry) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	return p.repo.Update(ctx, entry)
}

func (p *OutboxProcessor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Cleanup(ctx)
		}
	}
}

// Cleanup removes sent entries older than the retention window
func (p *OutboxProcessor) Cleanup(ctx context.Context) int64 {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to cleanup old entries", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		p.logger.Info("cleaned up old outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return deleted
}
