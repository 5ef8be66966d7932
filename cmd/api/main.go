package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/gateway"
	"github.com/spec-kit/complaint-service/internal/notify"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/recordsync"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	sequencer := persistence.NewRedisSequencer(redis.Client, ticketRepo, domain.TicketNoPrefix)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.AccessTokenTTLMinutes)*time.Minute, cfg.App.Name)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	paymentGateway := gateway.NewHTTPGateway(cfg.Gateway, logger)

	syncOrchestrator := recordsync.NewOrchestrator(
		recordsync.NewDocStoreClient(cfg.Sync),
		recordsync.NewSheetClient(cfg.Sync),
		ticketRepo,
		cfg.Sync.RootFolder,
		logger,
	)
	notifier := notify.NewDispatcher(
		notify.NewWebhookSender(cfg.Notification.WebhookURL),
		cfg.App.DashboardBaseURL,
		cfg.Notification,
		logger,
	)

	effects := worker.NewEffects(worker.EffectsDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Sync:       syncOrchestrator,
		Notifier:   notifier,
		Metrics:    metrics,
		Logger:     logger,
	})
	effects.Register(dispatcher)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		AuditRepo:      auditRepo,
		AttachmentRepo: attachmentRepo,
		UserRepo:       userRepo,
		Sequencer:      sequencer,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		PaymentRepo: paymentRepo,
		TicketRepo:  ticketRepo,
		AuditRepo:   auditRepo,
		Gateway:     paymentGateway,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:  userRepo,
		ResetRepo: resetRepo,
		Tokens:    tokens,
		Hasher:    hasher,
		ResetTTL:  time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		Logger:    logger,
	})
	sweeperService := service.NewSweeperService(service.SweeperDependencies{
		TicketRepo:  ticketRepo,
		PaymentRepo: paymentRepo,
		AuditRepo:   auditRepo,
		Dispatcher:  dispatcher,
		MaxAge:      time.Duration(cfg.Sweeper.MaxAgeHours) * time.Hour,
		Logger:      logger,
	})

	if cfg.Sweeper.Enabled {
		sweeperWorker := worker.NewSweeperWorker(sweeperService,
			time.Duration(cfg.Sweeper.IntervalMinutes)*time.Minute, logger)
		go sweeperWorker.Run(ctx)
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Payments:       handlers.NewPaymentsHandler(paymentService),
		AuthMiddleware: auth.Middleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
