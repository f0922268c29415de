package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tablewise/internal/shared/config"
	"tablewise/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the stores behind bookings and the capacity ledger.
type DB struct {
	PostgreSQL *gorm.DB
	Redis      *redis.Client
	Ledger     config.LedgerConfig
}

// InitDB connects to Postgres and Redis. Redis may be left out unless the ledger lives
// there. Schema migration is run by the caller.
func InitDB(cfg *config.Config) (*DB, error) {
	pg, err := openPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	db := &DB{PostgreSQL: pg, Ledger: cfg.Ledger}

	rdb, err := openRedis(cfg)
	switch {
	case err == nil:
		db.Redis = rdb
	case cfg.Ledger.Backend == "redis":
		_ = db.Close()
		return nil, fmt.Errorf("redis ledger backend needs Redis: %w", err)
	default:
		logger.GetDefault().Warn("Redis unavailable, caching and rate limiting disabled", slog.Any("error", err))
	}

	logger.GetDefault().Info("Capacity ledger configured",
		slog.String("backend", cfg.Ledger.Backend),
		slog.Duration("lock_wait", cfg.Ledger.LockWait),
		slog.Duration("lock_ttl", cfg.Ledger.LockTTL),
	)
	return db, nil
}

func openPostgres(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Silent
	if cfg.IsDevelopment() {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
		// SET LOCAL lock_timeout in ledger transactions cannot be prepared
		PrepareStmt:                              false,
		DisableForeignKeyConstraintWhenMigrating: true,
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.GetDefault().Info("PostgreSQL connected",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
		slog.Int("max_open_conns", cfg.Database.MaxOpenConns),
	)
	return db, nil
}

func openRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.GetDefault().Info("Redis connected", slog.String("addr", cfg.Redis.Addr))
	return rdb, nil
}

// Close closes every open connection.
func (db *DB) Close() error {
	var errs []error
	if db.PostgreSQL != nil {
		if sqlDB, err := db.PostgreSQL.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("PostgreSQL: %w", err))
			}
		}
	}
	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing connections: %v", errs)
	}
	logger.GetDefault().Info("All database connections closed")
	return nil
}

const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// ComponentHealth is the state of one store.
type ComponentHealth struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
	InUse     int    `json:"in_use,omitempty"`
	Open      int    `json:"open,omitempty"`
}

// LedgerHealth reports where seat counters live and whether that store answers.
type LedgerHealth struct {
	Backend  string `json:"backend"`
	Status   string `json:"status"`
	LockWait string `json:"lock_wait"`
	LockTTL  string `json:"lock_ttl,omitempty"`
}

type Health struct {
	Healthy  bool            `json:"healthy"`
	Postgres ComponentHealth `json:"postgres"`
	Redis    ComponentHealth `json:"redis"`
	Ledger   LedgerHealth    `json:"ledger"`
}

// Health pings each store. The service is unhealthy when Postgres or the ledger's store is down.
func (db *DB) Health(ctx context.Context) Health {
	h := Health{
		Postgres: ComponentHealth{Status: StatusDisabled},
		Redis:    ComponentHealth{Status: StatusDisabled},
		Ledger: LedgerHealth{
			Backend:  db.Ledger.Backend,
			LockWait: db.Ledger.LockWait.String(),
		},
	}

	if db.PostgreSQL != nil {
		h.Postgres = probe(func() error {
			sqlDB, err := db.PostgreSQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
		if sqlDB, err := db.PostgreSQL.DB(); err == nil {
			stats := sqlDB.Stats()
			h.Postgres.InUse = stats.InUse
			h.Postgres.Open = stats.OpenConnections
		}
	}
	if db.Redis != nil {
		h.Redis = probe(func() error { return db.Redis.Ping(ctx).Err() })
	}

	switch db.Ledger.Backend {
	case "redis":
		h.Ledger.Status = h.Redis.Status
		h.Ledger.LockTTL = db.Ledger.LockTTL.String()
	case "memory":
		h.Ledger.Status = StatusUp
	default:
		h.Ledger.Status = h.Postgres.Status
	}

	h.Healthy = h.Ledger.Status == StatusUp && h.Postgres.Status != StatusDown
	return h
}

func probe(ping func() error) ComponentHealth {
	start := time.Now()
	err := ping()
	c := ComponentHealth{Status: StatusUp, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		c.Status = StatusDown
		c.Error = err.Error()
	}
	return c
}

// GetRedisClient returns the Redis client, nil when Redis is not connected.
func (db *DB) GetRedisClient() *redis.Client {
	return db.Redis
}

// GetPostgreSQL returns the PostgreSQL GORM instance
func (db *DB) GetPostgreSQL() *gorm.DB {
	return db.PostgreSQL
}
