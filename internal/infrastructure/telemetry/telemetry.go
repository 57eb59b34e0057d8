package telemetry

import (
	"context"
	"errors"

	"github.com/belgrano/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Telemetry bundles the providers a service starts at boot.
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Profiler *Profiler
	Logs     *LoggerProvider
	Metrics  *BusinessMetrics
}

// Setup starts tracing, metrics, log export and profiling from cfg, and
// instruments db when database tracing is enabled.
func Setup(ctx context.Context, cfg config.TelemetryConfig, dbDriver string, db *gorm.DB, logger *zap.Logger) (*Telemetry, error) {
	tp, err := NewTracerProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	mp, err := NewMeterProvider(ctx, cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	lp, err := NewLoggerProvider(ctx, cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	prof, err := NewProfiler(cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		_ = lp.Shutdown(ctx)
		return nil, err
	}
	if prof.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	metrics, err := NewBusinessMetrics(mp.Meter(TracerName))
	if err != nil {
		return nil, err
	}

	if db != nil {
		plugin := NewDBTracingPlugin(DBTracingConfig{
			Enabled:         cfg.Enabled && cfg.DBTraceEnabled,
			SlowQueryThresh: cfg.DBSlowQueryThresh,
			DBSystem:        dbDriver,
		}, logger)
		if err := plugin.Register(db); err != nil {
			return nil, err
		}
	}

	return &Telemetry{Tracer: tp, Meter: mp, Profiler: prof, Logs: lp, Metrics: metrics}, nil
}

// Shutdown stops every provider, returning the joined errors. Logs go last
// so the others can still report their own shutdown.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Profiler.Stop(),
		t.Meter.Shutdown(ctx),
		t.Tracer.Shutdown(ctx),
		t.Logs.Shutdown(ctx),
	)
}
