package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	outboxapp "github.com/belgrano/backend/internal/application/outbox"
	"github.com/belgrano/backend/internal/application/dispatch"
	"github.com/belgrano/backend/internal/application/storefront"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/infrastructure/auth"
	"github.com/belgrano/backend/internal/infrastructure/cache"
	catalogsrc "github.com/belgrano/backend/internal/infrastructure/catalog"
	"github.com/belgrano/backend/internal/infrastructure/config"
	"github.com/belgrano/backend/internal/infrastructure/event"
	"github.com/belgrano/backend/internal/infrastructure/integration"
	"github.com/belgrano/backend/internal/infrastructure/logger"
	"github.com/belgrano/backend/internal/infrastructure/persistence"
	"github.com/belgrano/backend/internal/infrastructure/persistence/models"
	"github.com/belgrano/backend/internal/infrastructure/telemetry"
	"github.com/belgrano/backend/internal/interfaces/http/handler"
	"github.com/belgrano/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
	slowQuery       = 200 * time.Millisecond
)

func main() {
	cfg, err := config.Load(config.ServiceStorefront)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.Service,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Belgrano Ahorro",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
	)

	ctx := context.Background()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), slowQuery)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{Logger: gormLog})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(models.StorefrontModels()...); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.Database.Driver, db.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = logger.WithCores(log, tel.Logs.Core(logger.ParseLevel(cfg.Log.Level)))

	stores, err := cache.NewStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize stores", zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	source, err := catalogsrc.NewSource(ctx, cfg.Catalog, log)
	if err != nil {
		log.Fatal("Failed to open catalog", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if client := stores.Redis(); client != nil {
		blacklist = auth.NewRedisTokenBlacklist(client, "belgrano:storefront:revoked:")
	}

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	syncRepo := persistence.NewGormTicketSyncRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	serializer := event.NewEventSerializer()
	event.RegisterStorefrontEvents(serializer)
	scope := persistence.NewStorefrontTransactionScope(db.DB, event.NewOutboxPublisher(serializer, cfg.Outbox.MaxRetries))

	// Confirmed orders travel to ticketing through the outbox. The order
	// number is the dedup key so a replayed entry never posts twice.
	ticketsClient := integration.NewTicketsClient(cfg.Integration)
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		dispatch.Measured(dispatch.NewTicketDispatchHandler(ticketsClient, log), tel.Metrics),
		stores.Idempotency, log,
		event.WithKeyFunc(event.ByAggregate),
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Idempotency.TTL, Enabled: true}),
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() { _ = eventBus.Stop(context.Background()) }()

	var (
		notifier        storefront.OutboxNotifier
		outboxProcessor *event.OutboxProcessor
	)
	if cfg.Outbox.Enabled {
		outboxProcessor = event.NewOutboxProcessor(outboxRepo, eventBus, serializer, event.OutboxProcessorConfigFrom(cfg.Outbox), log)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		notifier = outboxProcessor
	} else {
		log.Warn("Outbox delivery disabled; orders will not reach ticketing from this process")
	}

	checkHealth(ctx, ticketsClient, log)

	// Application services
	catalogService := storefront.NewCatalogService(source, log)
	cartService := storefront.NewCartService(stores.Carts, source, log)
	customerService := storefront.NewCustomerService(customerRepo, auth.NewPasswordHasher(0), jwtService, blacklist, log)
	orderService := storefront.NewOrderService(orderRepo, syncRepo, customerRepo, source, log)
	checkoutService := storefront.NewCheckoutService(scope, orderRepo, customerRepo, stores.Carts, source, notifier, tel.Metrics, log)

	deps := router.StorefrontDeps{
		JWT:            jwtService,
		Blacklist:      blacklist,
		APIKey:         cfg.Integration.APIKey,
		LoginRateLimit: cfg.HTTP.LoginRateLimit,
		Logger:         log,
		System:         handler.NewSystemHandler("Belgrano Ahorro", version, db, log),
		Catalog:        handler.NewCatalogHandler(catalogService),
		Cart:           handler.NewCartHandler(cartService, cfg.App.IsProduction()),
		Customers:      handler.NewCustomerHandler(customerService),
		Pedidos:        handler.NewPedidoHandler(checkoutService, orderService),
		API:            handler.NewStorefrontAPIHandler(catalogService, orderService, db, version, log),
	}
	if outboxProcessor != nil {
		deps.Outbox = handler.NewOutboxHandler(outboxapp.NewService(outboxRepo, outboxProcessor, log))
	} else {
		deps.Outbox = handler.NewOutboxHandler(outboxapp.NewService(outboxRepo, nil, log))
	}

	engine := router.NewEngine(router.EngineConfig{
		Env:       cfg.App.Env,
		HTTP:      cfg.HTTP,
		Telemetry: cfg.Telemetry,
		Meter:     tel.Meter.Meter(telemetry.TracerName),
		Logger:    log,
	})
	router.SetupStorefront(engine, deps)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// checkHealth logs whether ticketing answers. An unreachable peer is not
// fatal: orders wait in the outbox until it comes back.
func checkHealth(ctx context.Context, client *integration.TicketsClient, log *zap.Logger) {
	if err := client.Health(ctx); err != nil {
		log.Warn("Ticketing service unreachable at startup", zap.Error(err))
		return
	}
	log.Info("Ticketing service reachable")
}
