package postgres

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"rate_monitor/internal/modules/config"
	"rate_monitor/pkg/db"
	"rate_monitor/pkg/logger"
)

// Module поднимает пул Postgres. Без db_dsn менеджер транзакций nil, а настройки живут в памяти.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					logger.Info("[PG] db_dsn not set, postgres disabled")
					return nil, nil
				}

				pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB, MaxConns: 4})
				if err != nil {
					return nil, errors.Wrap(err, "failed to create pool")
				}
				if err := pool.Ping(ctx); err != nil {
					pool.Close()
					return nil, errors.Wrap(err, "ping postgres")
				}

				m := db.NewPgTxManager(pool)
				lc.Append(fx.StopHook(m.Close))
				return m, nil
			},
		),
	)
}
