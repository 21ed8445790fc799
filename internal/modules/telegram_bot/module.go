package telegram

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/telegram_bot/service"
	"signal_bot/internal/notify"
)

// NewNotifier always logs locally and adds Telegram when it is configured and
// reachable. A broken chat setup degrades to log-only instead of failing startup.
func NewNotifier(cfg *config.Config, log *zap.Logger) notify.Notifier {
	out := notify.Fanout{notify.NewStdout(log)}

	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		log.Warn("telegram is not configured, alerts go to the log only")
		return out
	}

	tg, err := service.NewTelegram(service.Config{
		Token:   cfg.Telegram.Token,
		ChatID:  cfg.Telegram.ChatID,
		Timeout: cfg.Telegram.Timeout,
	}, log)
	if err != nil {
		log.Error("telegram unavailable, alerts go to the log only", zap.Error(err))
		return out
	}
	return append(out, tg)
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			NewNotifier,
		),
	)
}
