// Package app wires configuration, storage, messaging and the billing
// services into a single container shared by the CLI and the worker.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/payved/internal/billing/application"
	"github.com/felixgeelhaar/payved/internal/billing/application/commands"
	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/gateway"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/persistence"
	"github.com/felixgeelhaar/payved/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/payved/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/payved/internal/shared/infrastructure/locking"
	"github.com/felixgeelhaar/payved/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/payved/pkg/config"
)

// Container holds all wired application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Storage. Exactly one of Pool or SQLiteDB is set.
	Pool     *pgxpool.Pool
	SQLiteDB *sql.DB

	RedisClient    *redis.Client
	EventPublisher eventbus.Publisher
	Locker         locking.Locker

	PaymentRepo      domain.PaymentRepository
	SubscriptionRepo domain.SubscriptionRepository

	Gateway gateway.Gateway
	Invoker *commands.Invoker

	BillingService *application.BillingService
	Scheduler      *application.Scheduler
}

// NewContainer creates and wires all dependencies. A DATABASE_URL selects
// PostgreSQL; otherwise the embedded SQLite database is used, so the CLI
// works with zero setup.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		c.Pool = pool
		c.PaymentRepo = persistence.NewPostgresPaymentRepository(pool)
		c.SubscriptionRepo = persistence.NewPostgresSubscriptionRepository(pool)
		logger.Info("connected to PostgreSQL")
	} else {
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		c.SQLiteDB = db
		c.PaymentRepo = persistence.NewSQLitePaymentRepository(db)
		c.SubscriptionRepo = persistence.NewSQLiteSubscriptionRepository(db)
		logger.Info("using SQLite database")
	}

	// Redis is optional: without it billing locks are process-local.
	c.Locker = locking.NewMemoryLocker()
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, billing locks will be in-process only", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					c.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, billing locks will be in-process only", "error", err)
			} else {
				c.RedisClient = redisClient
				c.Locker = locking.NewRedisLocker(redisClient, locking.DefaultLockTTL, logger)
				logger.Info("connected to Redis")
			}
		}
	}

	// RabbitMQ is optional: without it domain events are dropped.
	c.EventPublisher = eventbus.NewNoopPublisher(logger)
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		} else {
			c.EventPublisher = publisher
		}
	}

	// The simulated gateway stands in for a real processor and runs behind
	// a circuit breaker, same as a networked one would.
	simulated := gateway.NewSimulatedGateway(gateway.SimulatedConfig{
		ChargeSuccessRate: cfg.GatewayChargeRate,
		RefundSuccessRate: cfg.GatewayRefundRate,
		Latency:           cfg.GatewayLatency,
	}, logger)
	breakerCfg := gateway.DefaultBreakerConfig()
	if cfg.GatewayTimeout > 0 {
		breakerCfg.CallTimeout = cfg.GatewayTimeout
	}
	c.Gateway = gateway.NewBreakerGateway(simulated, breakerCfg, logger)

	c.Invoker = commands.NewInvoker(cfg.HistoryCapacity, logger)
	c.BillingService = application.NewBillingService(
		c.PaymentRepo,
		c.SubscriptionRepo,
		c.Gateway,
		c.Invoker,
		c.Locker,
		c.EventPublisher,
		logger,
	)
	c.Scheduler = application.NewScheduler(
		c.SubscriptionRepo,
		c.PaymentRepo,
		c.Gateway,
		c.Invoker,
		c.Locker,
		c.EventPublisher,
		application.SchedulerConfig{Workers: cfg.BillingWorkers},
		logger,
	)

	return c, nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.Pool != nil {
		c.Pool.Close()
		c.Logger.Info("PostgreSQL connection closed")
	}

	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			c.Logger.Warn("error closing SQLite database", "error", err)
		}
	}
}
