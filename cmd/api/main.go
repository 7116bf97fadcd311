package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/routing-service/internal/api/http"
	"github.com/spec-kit/routing-service/internal/api/http/handlers"
	"github.com/spec-kit/routing-service/internal/config"
	"github.com/spec-kit/routing-service/internal/events"
	"github.com/spec-kit/routing-service/internal/observability"
	"github.com/spec-kit/routing-service/internal/persistence"
	"github.com/spec-kit/routing-service/internal/repository"
	"github.com/spec-kit/routing-service/internal/routing"
	"github.com/spec-kit/routing-service/internal/service"
	"github.com/spec-kit/routing-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	agentRepo := repository.NewAgentRepository(pool)
	itemRepo := repository.NewItemRepository(pool)
	historyRepo := repository.NewResolutionHistoryRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool, cfg.Routing, cfg.SLA)

	clock := routing.SystemClock()
	var queue routing.AssignmentQueue
	if cfg.Queue.Backend == "redis" {
		queue = routing.NewRedisQueue(redis.Client, cfg.Queue.KeyPrefix, clock)
		logger.Info("using redis assignment queue", zap.String("key_prefix", cfg.Queue.KeyPrefix))
	} else {
		queue = routing.NewMemoryQueue()
		logger.Info("using in-memory assignment queue")
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	engine := routing.NewEngine(routing.EngineDependencies{
		Queue:      queue,
		AgentRepo:  agentRepo,
		ItemRepo:   itemRepo,
		HistRepo:   historyRepo,
		Settings:   settingsRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Clock:      clock,
	})

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifications.RegisterHandlers()

	monitor := routing.NewMonitor(routing.MonitorDependencies{
		ItemRepo:   itemRepo,
		Settings:   settingsRepo,
		Engine:     engine,
		Notifier:   notifications,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Clock:      clock,
	})

	scheduler := worker.NewScheduler(logger)
	scheduler.Register("routing_tick", cfg.Scheduler.TickInterval(), engine.Tick)
	scheduler.Register("escalation_scan", cfg.Scheduler.ScanInterval(), monitor.Scan)
	scheduler.Start(ctx)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Items:    handlers.NewItemsHandler(itemRepo, engine, queue, settingsRepo, clock),
		Agents:   handlers.NewAgentsHandler(agentRepo, engine),
		Settings: handlers.NewSettingsHandler(settingsRepo),
		Metrics:  metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	scheduler.Wait()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
