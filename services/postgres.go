package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menprac-cloud/menPrac-backend/config"
)

const (
	pgConnectInitialBackoff = 500 * time.Millisecond
	pgConnectMaxBackoff     = 5 * time.Second
	pgConnectMaxRetries     = 5
)

// NewPostgresPool opens a pgx connection pool and verifies connectivity.
// Startup races with the database container in most deployments, so the
// initial ping is retried with exponential backoff.
func NewPostgresPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.ConnConfig.ConnectTimeout = time.Duration(cfg.ConnectTimeout) * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	operation := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeout)*time.Second)
		defer cancel()
		return pool.Ping(pingCtx)
	}

	backoffStrategy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(pgConnectInitialBackoff),
				backoff.WithMaxInterval(pgConnectMaxBackoff),
			),
			pgConnectMaxRetries,
		),
		ctx,
	)

	if err := backoff.Retry(operation, backoffStrategy); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}

	return pool, nil
}
