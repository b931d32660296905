package postgres

import (
	"context"
	"fmt"
	"trade_engine/internal/modules/config"
	"trade_engine/pkg/db"
	"trade_engine/pkg/logger"

	"go.uber.org/fx"
)

// Module — пул pgx под журнал сделок. DSN не задан — журнал живёт
// только в памяти, это не ошибка.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					logger.Info("postgres: DSN not set, trade journal is in-memory only")
					return nil, nil
				}
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					return nil, err
				}

				return db.NewPgTxManager(poolMaster), nil
			},
		),
	)
}
