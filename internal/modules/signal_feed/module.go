package signal_feed

import (
	"context"

	"go.uber.org/fx"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/signal_feed/service"
	"signal_bot/internal/runner"
)

// NewPublisher returns nil when the feed is disabled; the scheduler skips a nil publisher.
func NewPublisher(cfg *config.Config, hub *service.Hub) runner.Publisher {
	if !cfg.Feed.Enabled {
		return nil
	}
	return hub
}

func Module() fx.Option {
	return fx.Module("signal_feed",
		fx.Provide(
			service.NewHub,
			NewPublisher,
		),
		fx.Invoke(func(lc fx.Lifecycle, hub *service.Hub) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					hub.Close()
					return nil
				},
			})
		}),
	)
}
