package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"signal_bot/internal/modules/angel"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health"
	"signal_bot/internal/modules/postgres"
	"signal_bot/internal/modules/signal_feed"
	telegram "signal_bot/internal/modules/telegram_bot"
	"signal_bot/internal/runner"
	"signal_bot/internal/strategy"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"
)

func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	l, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputFile: cfg.Log.OutputFile,
		Service:    cfg.Service.Name,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = l.Sync()
			return nil
		},
	})
	return l, nil
}

func initTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	}, cfg.Service.Name)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := closer.Close(); err != nil {
				log.Error("closing tracer", zap.Error(err))
			}
			return nil
		},
	})
	return nil
}

func main() {
	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			newLogger,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		config.Module(),
		fx.Invoke(initTracing),
		postgres.Module(),
		strategy.Module(),
		angel.Module(),
		telegram.Module(),
		signal_feed.Module(),
		runner.Module(),
		health.Module(),
	)
	app.Run()
}
