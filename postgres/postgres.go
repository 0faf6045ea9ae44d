// Package postgres holds the relational backend of the REST API: pool setup,
// the startup wait, schema initialization and the task repository.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/alexalex89/task-management/config"
)

//go:embed schema.sql
var schemaSQL string

// ErrDatabaseTimeout is returned when the database never became reachable.
var ErrDatabaseTimeout = errors.New("database connection timeout")

// Connect builds the pool without waiting for the server to accept queries.
func Connect(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	return pool, nil
}

// Pinger reports the server time. *pgxpool.Pool is adapted by PoolPinger.
type Pinger interface {
	Now(ctx context.Context) (time.Time, error)
}

// PoolPinger runs SELECT NOW() on a pool.
type PoolPinger struct {
	Pool *pgxpool.Pool
}

func (p PoolPinger) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	err := p.Pool.QueryRow(ctx, "SELECT NOW()").Scan(&now)
	return now, err
}

// WaitForDatabase polls the database until it answers or retries run out.
func WaitForDatabase(ctx context.Context, db Pinger, retries int, interval time.Duration, logger *log.Logger) error {
	logger.Info("waiting for database to be ready")
	for i := 0; i < retries; i++ {
		now, err := db.Now(ctx)
		if err == nil {
			logger.WithFields(log.Fields{"server_time": now}).Info("database is ready")
			return nil
		}
		logger.WithFields(log.Fields{
			"attempt":  i + 1,
			"retries":  retries,
			"retry_in": interval.String(),
			"error":    err.Error(),
		}).Warn("database not ready")

		if i == retries-1 {
			break
		}
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return ErrDatabaseTimeout
}

// Init creates the schema and seeds sample tasks into an empty table. It is
// safe to run on every start.
func Init(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) error {
	logger.Info("initializing database")
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count); err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	logger.WithFields(log.Fields{"tasks": count}).Info("database initialized")
	return nil
}
