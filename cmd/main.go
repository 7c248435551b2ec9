package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waste-billing/internal/api"
	"waste-billing/internal/batch"
	"waste-billing/internal/config"
	"waste-billing/internal/domain/arrears"
	"waste-billing/internal/domain/customer"
	"waste-billing/internal/domain/payment"
	"waste-billing/internal/domain/tariff"
	"waste-billing/internal/event"
	"waste-billing/internal/infrastructure/cache"
	"waste-billing/internal/infrastructure/database/migrations"
	"waste-billing/internal/infrastructure/database/postgres"
	"waste-billing/internal/infrastructure/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Waste Billing API
// @version 1.0
// @description Customer, tariff, payment and arrears (tunggakan) API for a waste-collection service.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.Migrate {
		runMigrations(cfg, logger)
	}

	dbPool := initializeDatabase(ctx, cfg, logger)
	defer closeDatabase(dbPool, logger)

	reportCache, redisClient := initializeCache(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	publisher, amqpConn := initializeEventPublisher(cfg, logger)
	if amqpConn != nil {
		defer func() { _ = amqpConn.Close() }()
	}

	services, err := initializeServices(cfg, dbPool, publisher, reportCache, logger)
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	reminderJob := batch.NewArrearsReminderJob(services.Arrears, publisher, cfg.Batch.ReminderMinMonths, cfg.Batch.Concurrency, logger)
	cronScheduler := startBatchJobs(cfg, logger, reminderJob)

	router := api.SetupRouter(ctx, services, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func runMigrations(cfg *config.Config, logger *slog.Logger) {
	logger.Info("Applying database migrations...")
	if err := migrations.Up(cfg.Database.URL, logger); err != nil {
		logger.Error("Failed to apply database migrations", "error", err)
		os.Exit(1)
	}
}

func initializeDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

// initializeCache returns a pass-through cache when Redis is disabled or
// unreachable; reports are then computed on every request.
func initializeCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cache.ReportCache, *redis.Client) {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, arrears reports will not be cached")
		return cache.NewReportCache(nil, 0, logger), nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr)
	if err != nil {
		logger.Warn("Redis unavailable, arrears reports will not be cached", "error", err)
		return cache.NewReportCache(nil, 0, logger), nil
	}

	reportCache := cache.NewReportCache(client, cfg.Redis.ReportTTL, logger)
	if err := reportCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("Failed to subscribe to report cache invalidations", "error", err)
	}
	logger.Info("Report cache ready", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.ReportTTL)
	return reportCache, client
}

func initializeEventPublisher(cfg *config.Config, logger *slog.Logger) (event.EventPublisher, *amqp.Connection) {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, domain events will be dropped")
		return event.NewNoopEventPublisher(logger), nil
	}

	conn, err := connectRabbitMQ(cfg.AMQPURL(), logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		_ = conn.Close()
		logger.Error("Failed to create RabbitMQ event publisher", "error", err)
		os.Exit(1)
	}
	return publisher, conn
}

// pingableDB is the pool as seen by the repositories and the health check.
type pingableDB interface {
	postgres.DBPool
	Ping(ctx context.Context) error
}

func initializeServices(cfg *config.Config, dbPool pingableDB, pub event.EventPublisher, reportCache *cache.ReportCache, logger *slog.Logger) (api.Services, error) {
	logger.Info("Initializing application components...")

	policy, err := arrears.ParsePolicy(cfg.Arrears.InactivePolicy)
	if err != nil {
		return api.Services{}, err
	}

	customerRepo := postgres.NewCustomerRepository(dbPool, logger)
	tariffRepo := postgres.NewTariffRepository(dbPool, logger)
	paymentRepo := postgres.NewPaymentRepository(dbPool, logger)
	depositRepo := postgres.NewDepositRepository(dbPool, logger)

	tariffService := tariff.NewTariffService(tariffRepo, customerRepo, pub, reportCache, logger)
	customerService := customer.NewCustomerService(customerRepo, tariffService, pub, reportCache, logger)
	paymentService := payment.NewPaymentService(paymentRepo, depositRepo, customerRepo, pub, reportCache, logger)
	arrearsService := arrears.NewArrearsService(
		arrears.NewEngine(policy),
		customerRepo,
		tariffRepo,
		paymentRepo,
		reportCache,
		cfg.Batch.Concurrency,
		logger,
	)
	logger.Info("Arrears engine configured", "inactivePolicy", string(policy))

	return api.Services{
		Customers: customerService,
		Tariffs:   tariffService,
		Payments:  paymentService,
		Arrears:   arrearsService,
		DB:        dbPool,
	}, nil
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, reminderJob *batch.ArrearsReminderJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.ArrearsReminderSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 7 1 * *"
		logger.Warn("Arrears reminder schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.ArrearsReminderTimeout
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Minute
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "ArrearsReminder")
		jobLogger.Info("Cron triggered: Running arrears reminder job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := reminderJob.Run(ctx); runErr != nil {
			jobLogger.Error("Arrears reminder job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Arrears reminder job finished successfully.")
		}
	}))

	if err != nil {
		logger.Error("Failed to schedule arrears reminder job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled arrears reminder job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func setupLogger(cfg config.LoggerConfig) *slog.Logger {
	return logging.NewLogger(cfg)
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	retryCount := 5
	for i := 1; i <= retryCount; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
				closeChan := conn.NotifyClose(make(chan *amqp.Error))

				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
				case e := <-closeChan:
					if e != nil {
						logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
					}
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", retryCount),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retryCount, err)
}
