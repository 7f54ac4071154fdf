package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"coffee-storefront/internal/common/logger"
	"coffee-storefront/internal/config"
)

const (
	maxRetries = 10
	retryDelay = 2 * time.Second
	pingTTL    = 5 * time.Second
)

// Connect opens a pool and pings it, retrying while the database starts up.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	log := logger.New("database")
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}

	for i := 1; i <= maxRetries; i++ {
		var pool *pgxpool.Pool
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, pingTTL)
			err = pool.Ping(pctx)
			cancel()
			if err == nil {
				log.Info("db_connected", map[string]any{"host": cfg.Host, "attempt": i})
				return pool, nil
			}
			pool.Close()
		}
		log.Warn("db_connect_retry", map[string]any{"attempt": i, "error": err.Error()})

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "db connect canceled")
		}
	}
	return nil, errors.Wrapf(err, "database unreachable after %d attempts", maxRetries)
}
