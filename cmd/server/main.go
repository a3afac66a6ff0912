package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpAdapter "github.com/okiba/bookd/internal/adapter/http"
	"github.com/okiba/bookd/internal/adapter/http/handler"
	"github.com/okiba/bookd/internal/adapter/http/middleware"
	postgresRepo "github.com/okiba/bookd/internal/adapter/repository/postgres"
	redisRepo "github.com/okiba/bookd/internal/adapter/repository/redis"
	"github.com/okiba/bookd/internal/importer"
	"github.com/okiba/bookd/internal/infrastructure/config"
	"github.com/okiba/bookd/internal/infrastructure/logging"
	"github.com/okiba/bookd/internal/infrastructure/metrics"
	"github.com/okiba/bookd/internal/infrastructure/postgres"
	"github.com/okiba/bookd/internal/infrastructure/redis"
	"github.com/okiba/bookd/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	logger.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("connected to redis")

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	transferRepo := postgresRepo.NewTransferRepository(pool)
	snapshotRepo := postgresRepo.NewSnapshotRepository(pool)
	partyRepo := postgresRepo.NewPartyRepository(pool)
	partyEntryRepo := postgresRepo.NewPartyEntryRepository(pool)
	invoiceRepo := postgresRepo.NewInvoiceRepository(pool)
	categoryRepo := postgresRepo.NewCategoryRepository(pool)
	importRepo := postgresRepo.NewImportRepository(pool)
	retrier := postgresRepo.NewRetrier(logger)
	idGen := postgresRepo.NewULIDGenerator()

	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	appMetrics := metrics.New()

	// Use cases
	accountUC := usecase.NewAccountUseCase(accountRepo, cache, idGen)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, transactionRepo, snapshotRepo, idGen, appMetrics)
	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, transferRepo, transactionRepo, snapshotRepo, idGen, appMetrics)
	partyUC := usecase.NewPartyUseCase(partyRepo, partyEntryRepo, idGen)
	invoiceUC := usecase.NewInvoiceUseCase(txManager, invoiceRepo, partyRepo, partyEntryRepo, idGen, logger, appMetrics)
	categoryUC := usecase.NewCategoryUseCase(categoryRepo, idGen)
	importUC := usecase.NewImportUseCase(importRepo, accountRepo, transactionRepo, ledgerUC, importer.New(), idGen, logger, appMetrics)
	backupUC := usecase.NewBackupUseCase(accountRepo, transactionRepo, transferRepo, snapshotRepo, categoryRepo, txManager, logger)
	snapshotUC := usecase.NewSnapshotUseCase(snapshotRepo, transactionRepo, retrier, idGen, logger, appMetrics)
	reconciliationUC := usecase.NewReconciliationUseCase(accountRepo, transactionRepo, txManager, logger, appMetrics)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accountUC),
		TransactionHandler:    handler.NewTransactionHandler(ledgerUC),
		TransferHandler:       handler.NewTransferHandler(transferUC),
		PartyHandler:          handler.NewPartyHandler(partyUC),
		InvoiceHandler:        handler.NewInvoiceHandler(invoiceUC),
		CategoryHandler:       handler.NewCategoryHandler(categoryUC),
		ImportHandler:         handler.NewImportHandler(importUC, cfg.HTTPMaxUploadBytes),
		BackupHandler:         handler.NewBackupHandler(backupUC),
		SnapshotHandler:       handler.NewSnapshotHandler(snapshotUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		HealthHandler:         handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:      idempotencyStore,
		RateLimiter:           middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Logger:                logger,
		CORSAllowedOrigins:    cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	go snapshotUC.Run(workerCtx, cfg.SnapshotSweepInterval)
	go runOverdueSweep(workerCtx, invoiceUC, cfg.OverdueSweepInterval, logger)

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

type overdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// runOverdueSweep periodically moves pending and partially paid invoices past
// their due date to overdue.
func runOverdueSweep(ctx context.Context, invoices overdueMarker, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := invoices.MarkOverdue(ctx, time.Now())
			if err != nil {
				logger.Error().Err(err).Msg("overdue sweep failed")
				continue
			}
			if count > 0 {
				logger.Info().Int("count", count).Msg("marked invoices overdue")
			}
		}
	}
}
