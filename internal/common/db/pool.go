package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/community-board/internal/common/config"
	"github.com/AlibekovAA/community-board/internal/common/constants"
	"github.com/AlibekovAA/community-board/internal/common/logger"
)

type PgProvider = Lazy[*pgxpool.Pool]

// NewPgProvider returns a lazily connected pgx pool. The first successful
// connect applies pending migrations when cfg.AutoMigrate is set.
func NewPgProvider(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*PgProvider, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	poolCfg.MaxConns = constants.DBPoolMaxConns
	poolCfg.MinConns = constants.DBPoolMinConns
	poolCfg.MaxConnLifetime = constants.DBPoolConnMaxLifetime
	poolCfg.MaxConnIdleTime = constants.DBPoolConnMaxIdleTime
	poolCfg.HealthCheckPeriod = constants.DBPoolHealthCheck
	poolCfg.ConnConfig.ConnectTimeout = constants.DBPoolConnectTimeout
	poolCfg.ConnConfig.RuntimeParams = map[string]string{
		"application_name": "community-board",
	}

	connect := func(connectCtx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.ConnectConfig(connectCtx, poolCfg)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(connectCtx); err != nil {
			pool.Close()
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := Migrate(connectCtx, pool, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		log.Infof("database connection pool initialized: max=%d, min=%d", poolCfg.MaxConns, poolCfg.MinConns)
		StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)
		return pool, nil
	}

	ping := func(pingCtx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(pingCtx)
	}

	closeFn := func(_ context.Context, pool *pgxpool.Pool) error {
		pool.Close()
		return nil
	}

	return NewLazy(LazyConfig{
		Name:       "postgres",
		Attempts:   cfg.ConnectAttempts,
		RetryDelay: cfg.RetryDelay,
		Cooldown:   cfg.Cooldown,
		Logger:     log,
	}, connect, ping, closeFn), nil
}
