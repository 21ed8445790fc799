package strategy

import (
	"go.uber.org/fx"

	"signal_bot/internal/modules/config"
)

func NewEngineFromConfig(cfg *config.Config) (Engine, error) {
	return NewEngine(cfg.Scheduler.Strategy)
}

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			NewEngineFromConfig,
		),
	)
}
