package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/ledger"
	"signal_bot/internal/modules/config"
	"signal_bot/pkg/db"
)

// NewLedgerJournal connects when db_dsn is set. Without it the journal is nil
// and dedup state lives only in memory.
func NewLedgerJournal(lc fx.Lifecycle, ctx context.Context, cfg *config.Config, log *zap.Logger) (ledger.Journal, error) {
	if cfg.DB == "" {
		log.Info("db_dsn is empty, dedup journal disabled")
		return nil, nil
	}

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN: cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}
	if err := poolMaster.Ping(ctx); err != nil {
		poolMaster.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	tm := db.NewPgTxManager(poolMaster)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			tm.Close()
			return nil
		},
	})

	j := NewJournal(tm)
	if err := j.EnsureSchema(ctx); err != nil {
		tm.Close()
		return nil, err
	}
	return j, nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			NewLedgerJournal,
		),
	)
}
