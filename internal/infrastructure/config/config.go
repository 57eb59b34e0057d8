package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/spf13/viper"
)

// Service names, also used as config file names (storefront.toml, tickets.toml)
const (
	ServiceStorefront = "storefront"
	ServiceTickets    = "tickets"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds all configuration of one service process
type Config struct {
	Service     string
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Integration IntegrationConfig
	Outbox      OutboxConfig
	Idempotency IdempotencyConfig
	Catalog     CatalogConfig
	Broker      BrokerConfig
	Printing    PrintingConfig
	Telemetry   TelemetryConfig
	Couriers    CouriersConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the service runs in production mode
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string
	Path            string // sqlite file
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	// LoginRateLimit caps login attempts per client IP and minute
	LoginRateLimit int
}

// IntegrationConfig holds the settings for talking to the counterpart service
type IntegrationConfig struct {
	TicketsBaseURL    string
	StorefrontBaseURL string
	APIKey            string
	Timeout           time.Duration
	HealthTimeout     time.Duration
}

// OutboxConfig holds outbox delivery configuration
type OutboxConfig struct {
	Enabled         bool
	BatchSize       int
	PollInterval    time.Duration
	MaxRetries      int
	BaseBackoff     time.Duration
	ProcessingLease time.Duration
	CleanupEnabled  bool
	Retention       time.Duration
	CleanupInterval time.Duration
}

// IdempotencyConfig selects the store that deduplicates event handling
type IdempotencyConfig struct {
	Backend string // memory, redis
	TTL     time.Duration
}

// CatalogConfig selects where productos.json is read from
type CatalogConfig struct {
	Source          string // file, s3
	Path            string
	Bucket          string
	Key             string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	RefreshInterval time.Duration
}

// BrokerConfig selects the optional message broker that ticket events are fanned out to
type BrokerConfig struct {
	Kind      string // none, amqp, stan
	URL       string
	Exchange  string
	ClusterID string
	ClientID  string
	Subject   string
}

// PrintingConfig holds delivery slip rendering settings
type PrintingConfig struct {
	Enabled    bool
	ChromePath string
	Timeout    time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBSlowQueryThresh time.Duration
	ProfilingEnabled  bool
	ProfilingServer   string
}

// CouriersConfig lists the courier roster
type CouriersConfig struct {
	Names []string
}

// Load loads the configuration of a service from TOML and environment
// variables. Priority (highest to lowest):
// 1. Environment variables with BELGRANO_ prefix (e.g., BELGRANO_DATABASE_DRIVER)
// 2. <service>.toml
// 3. Built-in defaults
func Load(service string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(service)
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BELGRANO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("outbox.enabled", true)
	v.SetDefault("outbox.cleanup_enabled", true)

	cfg := &Config{
		Service: service,
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Issuer:     v.GetString("jwt.issuer"),
			Expiration: v.GetDuration("jwt.expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			LoginRateLimit:   v.GetInt("http.login_rate_limit"),
		},
		Integration: IntegrationConfig{
			TicketsBaseURL:    v.GetString("integration.tickets_base_url"),
			StorefrontBaseURL: v.GetString("integration.storefront_base_url"),
			APIKey:            v.GetString("integration.api_key"),
			Timeout:           v.GetDuration("integration.timeout"),
			HealthTimeout:     v.GetDuration("integration.health_timeout"),
		},
		Outbox: OutboxConfig{
			Enabled:         v.GetBool("outbox.enabled"),
			BatchSize:       v.GetInt("outbox.batch_size"),
			PollInterval:    v.GetDuration("outbox.poll_interval"),
			MaxRetries:      v.GetInt("outbox.max_retries"),
			BaseBackoff:     v.GetDuration("outbox.base_backoff"),
			ProcessingLease: v.GetDuration("outbox.processing_lease"),
			CleanupEnabled:  v.GetBool("outbox.cleanup_enabled"),
			Retention:       v.GetDuration("outbox.retention"),
			CleanupInterval: v.GetDuration("outbox.cleanup_interval"),
		},
		Idempotency: IdempotencyConfig{
			Backend: v.GetString("idempotency.backend"),
			TTL:     v.GetDuration("idempotency.ttl"),
		},
		Catalog: CatalogConfig{
			Source:          v.GetString("catalog.source"),
			Path:            v.GetString("catalog.path"),
			Bucket:          v.GetString("catalog.bucket"),
			Key:             v.GetString("catalog.key"),
			Region:          v.GetString("catalog.region"),
			Endpoint:        v.GetString("catalog.endpoint"),
			AccessKeyID:     v.GetString("catalog.access_key_id"),
			SecretAccessKey: v.GetString("catalog.secret_access_key"),
			RefreshInterval: v.GetDuration("catalog.refresh_interval"),
		},
		Broker: BrokerConfig{
			Kind:      v.GetString("broker.kind"),
			URL:       v.GetString("broker.url"),
			Exchange:  v.GetString("broker.exchange"),
			ClusterID: v.GetString("broker.cluster_id"),
			ClientID:  v.GetString("broker.client_id"),
			Subject:   v.GetString("broker.subject"),
		},
		Printing: PrintingConfig{
			Enabled:    v.GetBool("printing.enabled"),
			ChromePath: v.GetString("printing.chrome_path"),
			Timeout:    v.GetDuration("printing.timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingServer:   v.GetString("telemetry.profiling_server"),
		},
		Couriers: CouriersConfig{
			Names: v.GetStringSlice("couriers.names"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.Service == "" {
		cfg.Service = ServiceStorefront
	}
	if cfg.App.Name == "" {
		cfg.App.Name = "belgrano-" + cfg.Service
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "5000"
		if cfg.Service == ServiceTickets {
			cfg.App.Port = "5001"
		}
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "belgrano_ahorro.db"
		if cfg.Service == ServiceTickets {
			cfg.Database.Path = "belgrano_tickets.db"
		}
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
		if cfg.Database.Driver == DriverMySQL {
			cfg.Database.Port = 3306
		}
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "belgrano"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "belgrano_" + cfg.Service
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
		if cfg.Database.Driver == DriverSQLite {
			cfg.Database.MaxOpenConns = 1
		}
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
		if cfg.Database.MaxIdleConns > cfg.Database.MaxOpenConns {
			cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns
		}
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = cfg.App.Name
	}
	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 12 * time.Hour
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20 // 2MB
	}
	if cfg.HTTP.LoginRateLimit == 0 {
		cfg.HTTP.LoginRateLimit = 10
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-API-Key"}
	}

	if cfg.Integration.TicketsBaseURL == "" {
		cfg.Integration.TicketsBaseURL = "http://localhost:5001"
	}
	if cfg.Integration.StorefrontBaseURL == "" {
		cfg.Integration.StorefrontBaseURL = "http://localhost:5000"
	}
	if cfg.Integration.Timeout == 0 {
		cfg.Integration.Timeout = 10 * time.Second
	}
	if cfg.Integration.HealthTimeout == 0 {
		cfg.Integration.HealthTimeout = 5 * time.Second
	}

	if cfg.Outbox.BatchSize == 0 {
		cfg.Outbox.BatchSize = 100
	}
	if cfg.Outbox.PollInterval == 0 {
		cfg.Outbox.PollInterval = 2 * time.Second
	}
	if cfg.Outbox.MaxRetries == 0 {
		cfg.Outbox.MaxRetries = 5
	}
	if cfg.Outbox.BaseBackoff == 0 {
		cfg.Outbox.BaseBackoff = time.Second
	}
	if cfg.Outbox.ProcessingLease == 0 {
		cfg.Outbox.ProcessingLease = shared.DefaultProcessingLease
	}
	if cfg.Outbox.Retention == 0 {
		cfg.Outbox.Retention = 168 * time.Hour
	}
	if cfg.Outbox.CleanupInterval == 0 {
		cfg.Outbox.CleanupInterval = time.Hour
	}

	if cfg.Idempotency.Backend == "" {
		cfg.Idempotency.Backend = shared.IdempotencyBackendMemory
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = shared.DefaultIdempotencyTTL
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "file"
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "productos.json"
	}
	if cfg.Catalog.Key == "" {
		cfg.Catalog.Key = "productos.json"
	}
	if cfg.Catalog.Region == "" {
		cfg.Catalog.Region = "us-east-1"
	}
	if cfg.Catalog.RefreshInterval == 0 {
		cfg.Catalog.RefreshInterval = time.Minute
	}

	if cfg.Broker.Kind == "" {
		cfg.Broker.Kind = "none"
	}
	if cfg.Broker.Exchange == "" {
		cfg.Broker.Exchange = "belgrano.tickets"
	}
	if cfg.Broker.ClusterID == "" {
		cfg.Broker.ClusterID = "test-cluster"
	}
	if cfg.Broker.ClientID == "" {
		cfg.Broker.ClientID = cfg.App.Name
	}
	if cfg.Broker.Subject == "" {
		cfg.Broker.Subject = "tickets.events"
	}

	if cfg.Printing.Timeout == 0 {
		cfg.Printing.Timeout = 30 * time.Second
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}

	if len(cfg.Couriers.Names) == 0 {
		cfg.Couriers.Names = []string{"Repartidor1", "Repartidor2", "Repartidor3", "Repartidor4", "Repartidor5"}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or mysql, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox.batch_size must be positive")
	}
	switch c.Idempotency.Backend {
	case shared.IdempotencyBackendMemory, shared.IdempotencyBackendRedis:
	default:
		return fmt.Errorf("idempotency.backend must be memory or redis, got %q", c.Idempotency.Backend)
	}
	if c.Idempotency.Backend == shared.IdempotencyBackendRedis && !c.Redis.Enabled {
		return fmt.Errorf("idempotency.backend=redis requires redis.enabled")
	}
	switch c.Catalog.Source {
	case "file":
	case "s3":
		if c.Catalog.Bucket == "" {
			return fmt.Errorf("catalog.bucket is required when catalog.source=s3")
		}
	default:
		return fmt.Errorf("catalog.source must be file or s3, got %q", c.Catalog.Source)
	}
	switch c.Broker.Kind {
	case "none", "amqp", "stan":
	default:
		return fmt.Errorf("broker.kind must be none, amqp or stan, got %q", c.Broker.Kind)
	}
	if c.Broker.Kind != "none" && c.Broker.URL == "" {
		return fmt.Errorf("broker.url is required when broker.kind=%s", c.Broker.Kind)
	}

	if c.App.IsProduction() {
		if c.Integration.APIKey == "" {
			return fmt.Errorf("integration.api_key is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver == DriverPostgres && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the connection string for the configured driver
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.User, d.Password),
			Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:   d.DBName,
		}
		q := u.Query()
		q.Set("sslmode", d.SSLMode)
		u.RawQuery = q.Encode()
		return u.String()
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	default:
		return d.Path
	}
}
