package angel

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/angel/service"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/runner"
)

// Source adapts the SmartAPI client to the scheduler's CandleSource.
type Source struct {
	client *service.Client
}

func (s Source) Fetch(ctx context.Context, in models.Instrument, tf models.Timeframe, count int, from, to time.Time) ([]models.Candle, error) {
	return s.client.Fetch(ctx, service.FetchRequest{
		Instrument: in,
		Timeframe:  tf,
		Count:      count,
		From:       from,
		To:         to,
	})
}

func NewClient(cfg *config.Config, log *zap.Logger) *service.Client {
	return service.NewClient(service.Config{
		BaseURL:    cfg.Angel.BaseURL,
		APIKey:     cfg.Angel.APIKey,
		ClientCode: cfg.Angel.ClientCode,
		Password:   cfg.Angel.Password,
		TOTPSecret: cfg.Angel.TOTPSecret,
		Timeout:    cfg.Angel.Timeout,
	}, log)
}

func Module() fx.Option {
	return fx.Module("angel",
		fx.Provide(
			NewClient,
			func(c *service.Client) runner.CandleSource { return Source{client: c} },
		),
		// no point in starting the scheduler without a session
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return c.Login(ctx)
				},
			})
		}),
	)
}
