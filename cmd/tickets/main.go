package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/belgrano/backend/internal/application/dispatch"
	outboxapp "github.com/belgrano/backend/internal/application/outbox"
	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/auth"
	"github.com/belgrano/backend/internal/infrastructure/cache"
	"github.com/belgrano/backend/internal/infrastructure/config"
	"github.com/belgrano/backend/internal/infrastructure/event"
	"github.com/belgrano/backend/internal/infrastructure/integration"
	"github.com/belgrano/backend/internal/infrastructure/logger"
	"github.com/belgrano/backend/internal/infrastructure/persistence"
	"github.com/belgrano/backend/internal/infrastructure/persistence/models"
	"github.com/belgrano/backend/internal/infrastructure/printing"
	"github.com/belgrano/backend/internal/infrastructure/realtime"
	"github.com/belgrano/backend/internal/infrastructure/telemetry"
	"github.com/belgrano/backend/internal/interfaces/http/handler"
	"github.com/belgrano/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
	slowQuery       = 200 * time.Millisecond
	eventsPath      = "/eventos"
)

func main() {
	cfg, err := config.Load(config.ServiceTickets)
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

	log.Info("Starting Belgrano Tickets",
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
		if err := db.AutoMigrate(models.TicketingModels()...); err != nil {
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

	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if client := stores.Redis(); client != nil {
		blacklist = auth.NewRedisTokenBlacklist(client, "belgrano:tickets:revoked:")
	}

	pool := ticket.NewCourierPool(cfg.Couriers.Names...)
	log.Info("Courier pool ready", zap.Strings("repartidores", pool.Names()))

	// Repositories
	ticketRepo := persistence.NewGormTicketRepository(db.DB)
	registroRepo := persistence.NewGormRegistroRepository(db.DB)
	staffRepo := persistence.NewGormStaffUserRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	serializer := event.NewEventSerializer()
	event.RegisterTicketingEvents(serializer)
	scope := persistence.NewTicketingTransactionScope(db.DB, event.NewOutboxPublisher(serializer, cfg.Outbox.MaxRetries))

	// Live dashboard and optional broker fan-out
	hub := realtime.NewHub(log)
	hub.Start()

	publisher, err := realtime.NewPublisher(cfg.Broker, log)
	if err != nil {
		log.Fatal("Failed to connect to broker", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("Error closing broker publisher", zap.Error(err))
		}
	}()

	// Estado changes go back to the storefront. Every change is its own
	// event, so dedup is by event id rather than by ticket.
	idempotency := shared.IdempotencyConfig{TTL: cfg.Idempotency.TTL, Enabled: true}
	storefrontClient := integration.NewStorefrontClient(cfg.Integration)
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		dispatch.Measured(dispatch.NewOrderReconcileHandler(storefrontClient, log), tel.Metrics),
		stores.Idempotency, log,
		event.WithKeyFunc(event.ByEventID),
		event.WithIdempotencyConfig(idempotency),
	))
	eventBus.Subscribe(dispatch.NewBroadcastHandler(hub, log))
	eventBus.Subscribe(dispatch.NewBrokerHandler(publisher, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() { _ = eventBus.Stop(context.Background()) }()

	opts := []ticketing.TicketServiceOption{ticketing.WithMetrics(tel.Metrics)}
	outboxService := outboxapp.NewService(outboxRepo, nil, log)
	if cfg.Outbox.Enabled {
		processor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, event.OutboxProcessorConfigFrom(cfg.Outbox), log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := processor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		opts = append(opts, ticketing.WithOutboxNotifier(processor))
		outboxService = outboxapp.NewService(outboxRepo, processor, log)
	} else {
		log.Warn("Outbox delivery disabled; estado changes will not reach the storefront")
	}

	if cfg.Printing.Enabled {
		remitos, err := printing.NewRemitoRenderer(
			printing.NewChromedpRenderer(printing.ChromedpConfigFrom(cfg.Printing), log),
			printing.PaperA4, log)
		if err != nil {
			log.Fatal("Failed to initialize remito renderer", zap.Error(err))
		}
		opts = append(opts, ticketing.WithRemitoRenderer(remitos))
	}

	// Application services
	ticketService := ticketing.NewTicketService(scope, ticketRepo, registroRepo, pool, log, opts...)
	staffService := ticketing.NewStaffService(staffRepo, ticketRepo, pool, auth.NewPasswordHasher(0), jwtService, blacklist, log)
	fleetService := ticketing.NewFleetService(ticketRepo, registroRepo, pool, log)

	if seed, ok := seedPasswords(cfg.App); ok {
		if _, err := staffService.SeedDefaults(ctx, seed); err != nil {
			log.Fatal("Failed to seed staff users", zap.Error(err))
		}
	} else {
		log.Warn("Seed passwords not set; skipping default staff accounts",
			zap.String("env", envSeedAdminPassword+", "+envSeedFlotaPassword))
	}

	engine := router.NewEngine(router.EngineConfig{
		Env:        cfg.App.Env,
		HTTP:       cfg.HTTP,
		Telemetry:  cfg.Telemetry,
		Meter:      tel.Meter.Meter(telemetry.TracerName),
		Logger:     log,
		QuietPaths: []string{eventsPath},
	})
	router.SetupTickets(engine, router.TicketsDeps{
		JWT:            jwtService,
		Blacklist:      blacklist,
		APIKey:         cfg.Integration.APIKey,
		LoginRateLimit: cfg.HTTP.LoginRateLimit,
		Logger:         log,
		System:         handler.NewSystemHandler("Belgrano Tickets", version, db, log),
		Receive:        handler.NewTicketReceiveHandler(ticketService, log),
		Tickets:        handler.NewTicketHandler(ticketService),
		Staff:          handler.NewStaffHandler(staffService),
		Fleet:          handler.NewFleetHandler(fleetService),
		Events:         handler.NewEventsHandler(hub, tel.Metrics, log),
		Outbox:         handler.NewOutboxHandler(outboxService),
	})

	// SSE streams stay open, so the write timeout does not apply here
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
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

	// Close SSE clients first so Shutdown does not wait on them
	hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}
