package runner

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/ledger"
	"signal_bot/internal/market"
	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/notify"
	"signal_bot/internal/strategy"
)

type Params struct {
	fx.In

	Cfg       *config.Config
	Log       *zap.Logger
	Clock     *market.Clock
	Ledger    *ledger.Ledger
	Source    CandleSource
	Engine    strategy.Engine
	Notifier  notify.Notifier
	Journal   ledger.Journal `optional:"true"`
	Publisher Publisher      `optional:"true"`
	Observer  Observer       `optional:"true"`
}

func NewClock(cfg *config.Config) (*market.Clock, error) {
	loc, err := time.LoadLocation(cfg.Market.Timezone)
	if err != nil {
		return nil, err
	}
	open, err := market.ParseTimeOfDay(cfg.Market.Open)
	if err != nil {
		return nil, err
	}
	closeAt, err := market.ParseTimeOfDay(cfg.Market.Close)
	if err != nil {
		return nil, err
	}
	return market.NewClock(market.ClockConfig{
		Location:      loc,
		Open:          open,
		Close:         closeAt,
		SampleFromSec: cfg.Market.SampleFromSec,
		SampleToSec:   cfg.Market.SampleToSec,
	}, nil), nil
}

func NewLedger(cfg *config.Config) *ledger.Ledger {
	return ledger.New(cfg.Scheduler.LedgerCapacity)
}

func NewSchedulerFromConfig(p Params) (*Scheduler, error) {
	tf, err := models.ParseTimeframe(p.Cfg.Scheduler.Timeframe)
	if err != nil {
		return nil, err
	}
	sc := p.Cfg.Scheduler
	return NewScheduler(Deps{
		Clock:     p.Clock,
		Source:    p.Source,
		Engine:    p.Engine,
		Ledger:    p.Ledger,
		Journal:   p.Journal,
		Notifier:  p.Notifier,
		Publisher: p.Publisher,
		Observer:  p.Observer,
		Log:       p.Log,
	}, Options{
		Instruments:      p.Cfg.Instruments,
		Timeframe:        tf,
		CandleCount:      sc.CandleCount,
		Lookback:         sc.Lookback,
		FetchTimeout:     sc.FetchTimeout,
		DeliverTimeout:   p.Cfg.Telegram.Timeout,
		ClosedInterval:   sc.ClosedInterval,
		IdleInterval:     sc.IdleInterval,
		CooldownInterval: sc.CooldownInterval,
	}), nil
}

type lifecycleParams struct {
	fx.In

	Lc         fx.Lifecycle
	Shutdowner fx.Shutdowner
	Ctx        context.Context
	Cfg        *config.Config
	Log        *zap.Logger
	Scheduler  *Scheduler
	Ledger     *ledger.Ledger
	Notifier   notify.Notifier
	Journal    ledger.Journal `optional:"true"`
}

func runScheduler(p lifecycleParams) {
	log := p.Log.With(zap.String("module", "runner"))
	tf, _ := models.ParseTimeframe(p.Cfg.Scheduler.Timeframe) // validated on load

	send := func(ctx context.Context, text string) {
		ctx, cancel := context.WithTimeout(ctx, p.Cfg.Telegram.Timeout)
		defer cancel()
		if err := p.Notifier.Deliver(ctx, text); err != nil {
			log.Error("notification failed", zap.Error(err))
		}
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.Journal != nil {
				keys, err := p.Journal.Recent(ctx, p.Ledger.Cap())
				if err != nil {
					log.Warn("ledger restore failed, starting empty", zap.Error(err))
				} else {
					p.Ledger.Restore(keys)
					log.Info("ledger restored", zap.Int("keys", p.Ledger.Len()))
				}
			}

			send(ctx, notify.StartupMessage(p.Cfg.Instruments, tf))

			p.Scheduler.Start(p.Ctx, func(err error) {
				send(context.Background(), notify.FatalMessage(err))
				if serr := p.Shutdowner.Shutdown(fx.ExitCode(1)); serr != nil {
					log.Error("shutdown failed", zap.Error(serr))
				}
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := p.Scheduler.Stop(ctx); err != nil {
				return err
			}
			if p.Scheduler.Err() == nil {
				send(ctx, notify.StopMessage())
			}
			return nil
		},
	})
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewClock,
			NewLedger,
			NewSchedulerFromConfig,
		),
		fx.Invoke(runScheduler),
	)
}
