// Package database opens the PostgreSQL pool and applies the schema.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/config"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Retry settings for Connect.
var (
	ConnectAttempts = 20
	ConnectDelay    = 3 * time.Second
)

// Connect opens a pool and pings it, retrying while the server comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	log := logger.With(zap.String("host", cfg.Host), zap.String("db", cfg.Name))
	var lastErr error
	for attempt := 1; attempt <= ConnectAttempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				log.Info("Connected to PostgreSQL", zap.Int("attempt", attempt))
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		log.Warn("PostgreSQL not ready, retrying", zap.Int("attempt", attempt), zap.Int("maxAttempts", ConnectAttempts), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(ConnectDelay):
		}
	}
	return nil, fmt.Errorf("connect to postgres after %d attempts: %w", ConnectAttempts, lastErr)
}
