package shared

import (
	"context"
	"time"
)

// Idempotency store backends accepted by the idempotency.backend setting
const (
	IdempotencyBackendMemory = "memory"
	IdempotencyBackendRedis  = "redis"
)

// DefaultIdempotencyTTL covers the longest outbox backoff chain with room to spare
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers delivery keys (an order numero, an event id)
// so a replayed outbox entry is not delivered to the other service twice.
type IdempotencyStore interface {
	// MarkProcessed records key for ttl and reports whether it was new
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig controls how long delivery keys are kept
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps keys for DefaultIdempotencyTTL
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: DefaultIdempotencyTTL, Enabled: true}
}

// Normalize returns c with a zero or negative TTL replaced by the default.
// Enabled is left alone.
func (c IdempotencyConfig) Normalize() IdempotencyConfig {
	if c.TTL <= 0 {
		c.TTL = DefaultIdempotencyTTL
	}
	return c
}
