package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/voucher-service/internal/api/http"
	"github.com/spec-kit/voucher-service/internal/api/http/handlers"
	"github.com/spec-kit/voucher-service/internal/auth"
	"github.com/spec-kit/voucher-service/internal/config"
	"github.com/spec-kit/voucher-service/internal/events"
	"github.com/spec-kit/voucher-service/internal/observability"
	"github.com/spec-kit/voucher-service/internal/persistence"
	"github.com/spec-kit/voucher-service/internal/repository"
	"github.com/spec-kit/voucher-service/internal/service"
	"github.com/spec-kit/voucher-service/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	voucherRepo := repository.NewVoucherRepository(pool)
	expenseRepo := repository.NewExpenseRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	profileService := service.NewProfileService(userRepo)
	voucherService := service.NewVoucherService(service.VoucherDependencies{
		VoucherRepo: voucherRepo,
		ExpenseRepo: expenseRepo,
		Tx:          pg,
		Dispatcher:  dispatcher,
		Policy:      cfg.Expense,
	})
	expenseService := service.NewExpenseService(service.ExpenseDependencies{
		VoucherRepo: voucherRepo,
		ExpenseRepo: expenseRepo,
		Tx:          pg,
		Dispatcher:  dispatcher,
		Policy:      cfg.Expense,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokenVerifier := auth.NewTokenVerifier(cfg.Identity.JWTSecret, cfg.Identity.Issuer)
	authMiddleware := auth.NewAuthMiddleware(tokenVerifier, profileService)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	profileHandler := handlers.NewProfileHandler(profileService)
	vouchersHandler := handlers.NewVouchersHandler(voucherService)
	expensesHandler := handlers.NewExpensesHandler(expenseService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Profile:        profileHandler,
		Vouchers:       vouchersHandler,
		Expenses:       expensesHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
