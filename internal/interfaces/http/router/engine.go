package router

import (
	"time"

	"github.com/belgrano/backend/internal/infrastructure/config"
	"github.com/belgrano/backend/internal/infrastructure/logger"
	"github.com/belgrano/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	defaultMaxBodySize = 1 << 20
	loginWindow        = time.Minute
)

// EngineConfig carries what the shared middleware chain needs
type EngineConfig struct {
	Env       string
	HTTP      config.HTTPConfig
	Telemetry config.TelemetryConfig
	// Meter is optional; nil disables request metrics
	Meter  metric.Meter
	Logger *zap.Logger
	// QuietPaths are logged at debug level and never traced
	QuietPaths []string
}

// NewEngine builds a gin engine with the middleware chain both servers share:
// request ID, recovery, access log, tracing, security headers, CORS, body
// limit, metrics and profiling labels.
func NewEngine(cfg EngineConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			cfg.Logger.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	maxBody := cfg.HTTP.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(cfg.Logger),
		logger.GinMiddleware(cfg.Logger, cfg.QuietPaths...),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
			SkipPaths:   cfg.QuietPaths,
		}),
		middleware.SpanEnricher(),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(maxBody),
		middleware.HTTPMetrics(cfg.Meter),
		middleware.Profiling(cfg.Telemetry.ProfilingEnabled, cfg.QuietPaths...),
	)
	return engine
}

// loginLimiter caps login attempts per client; a non-positive limit disables it
func loginLimiter(limit int) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(middleware.NewRateLimiter(limit, loginWindow))
}
