package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/belgrano/backend/internal/domain/catalog"
	"github.com/belgrano/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// CachedSource keeps the last good catalog and reloads it once the refresh
// interval has passed. A failed reload keeps serving the previous snapshot.
type CachedSource struct {
	src      catalog.Source
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	current  *catalog.Catalog
	loadedAt time.Time
}

// NewCachedSource wraps src. interval <= 0 loads once and never refreshes.
func NewCachedSource(src catalog.Source, interval time.Duration, logger *zap.Logger) *CachedSource {
	return &CachedSource{src: src, interval: interval, logger: logger, now: time.Now}
}

// Load returns the cached catalog, refreshing it when stale
func (c *CachedSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && (c.interval <= 0 || c.now().Sub(c.loadedAt) < c.interval) {
		return c.current, nil
	}

	fresh, err := c.src.Load(ctx)
	if err != nil {
		if c.current != nil {
			c.logger.Warn("catalog reload failed, serving previous snapshot", zap.Error(err))
			c.loadedAt = c.now()
			return c.current, nil
		}
		return nil, err
	}
	c.current = fresh
	c.loadedAt = c.now()
	c.logger.Info("catalog loaded", zap.Int("productos", len(fresh.Products)))
	return fresh, nil
}

// NewSource builds the configured source wrapped in a cache
func NewSource(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger) (*CachedSource, error) {
	var src catalog.Source
	switch cfg.Source {
	case "", "file":
		src = NewFileSource(cfg.Path)
	case "s3":
		s3src, err := NewS3Source(ctx, cfg)
		if err != nil {
			return nil, err
		}
		src = s3src
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
	return NewCachedSource(src, cfg.RefreshInterval, logger), nil
}

var _ catalog.Source = (*CachedSource)(nil)
