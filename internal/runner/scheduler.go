package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"signal_bot/internal/ledger"
	"signal_bot/internal/market"
	"signal_bot/internal/models"
	"signal_bot/internal/notify"
	"signal_bot/internal/strategy"
)

// CandleSource returns candles with open time in [from, to], oldest first.
// The newest one may still be forming.
type CandleSource interface {
	Fetch(ctx context.Context, in models.Instrument, tf models.Timeframe, count int, from, to time.Time) ([]models.Candle, error)
}

// Publisher receives every emitted signal after delivery. Must not block.
type Publisher interface {
	Publish(sig models.Signal)
}

// Observer sees scheduler activity; used for health and metrics.
type Observer interface {
	OnState(s State)
	OnPoll(at time.Time)
	OnFetchFailure(instrument string)
	OnSignal(sig models.Signal)
	OnDeliveryFailure()
}

type State int32

const (
	StateIdle State = iota
	StatePolling
	StateSleeping
	StateMarketClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateSleeping:
		return "sleeping"
	case StateMarketClosed:
		return "market_closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Options struct {
	Instruments      []models.Instrument
	Timeframe        models.Timeframe
	CandleCount      int
	Lookback         time.Duration
	FetchTimeout     time.Duration
	DeliverTimeout   time.Duration
	ClosedInterval   time.Duration
	IdleInterval     time.Duration
	CooldownInterval time.Duration
}

type Deps struct {
	Clock     *market.Clock
	Source    CandleSource
	Engine    strategy.Engine
	Ledger    *ledger.Ledger
	Journal   ledger.Journal // optional
	Notifier  notify.Notifier
	Publisher Publisher // optional
	Observer  Observer  // optional
	Log       *zap.Logger
}

// Scheduler polls every instrument once per eligible sample instant and
// emits each completed bar's signal at most once.
type Scheduler struct {
	Deps
	opt Options

	state       atomic.Int32
	lastSampled time.Time // minute of the last poll
	sleep       func(ctx context.Context, d time.Duration) error
	newID       func() string

	cancel context.CancelFunc
	done   chan struct{}
	runErr error
	mu     sync.Mutex
}

func NewScheduler(deps Deps, opt Options) *Scheduler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	deps.Log = deps.Log.With(zap.String("module", "scheduler"))
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if opt.FetchTimeout <= 0 {
		opt.FetchTimeout = 10 * time.Second
	}
	if opt.DeliverTimeout <= 0 {
		opt.DeliverTimeout = 10 * time.Second
	}
	if opt.CandleCount < strategy.MinWindow {
		opt.CandleCount = strategy.MinWindow
	}

	return &Scheduler{
		Deps:  deps,
		opt:   opt,
		sleep: sleepCtx,
		newID: uuid.NewString,
	}
}

func (s *Scheduler) State() State { return State(s.state.Load()) }

func (s *Scheduler) setState(st State) {
	if State(s.state.Swap(int32(st))) != st {
		s.Observer.OnState(st)
	}
}

// Tick runs one step of the state machine and returns how long to sleep
// before the next one. The only error it returns is a fatal one.
func (s *Scheduler) Tick(ctx context.Context) (time.Duration, error) {
	now := s.Clock.Now()

	if !s.Clock.IsTrading(now) {
		if s.State() != StateMarketClosed {
			s.Log.Info("outside market hours", zap.String("now", now.Format("15:04:05")))
		}
		s.setState(StateMarketClosed)
		d := s.opt.ClosedInterval
		if until := s.Clock.UntilOpen(now); until > 0 && until < d {
			d = until
		}
		return d, nil
	}

	if !s.Clock.IsSampleInstant(s.opt.Timeframe, now) {
		s.setState(StateIdle)
		return s.opt.IdleInterval, nil
	}

	minute := now.Truncate(time.Minute)
	if minute.Equal(s.lastSampled) {
		// same minute, already polled
		s.setState(StateSleeping)
		return s.opt.IdleInterval, nil
	}
	s.lastSampled = minute

	s.setState(StatePolling)
	err := s.PollOnce(ctx, now)
	s.setState(StateSleeping)
	return s.opt.CooldownInterval, err
}

// PollOnce processes every instrument in configured order. A failing
// instrument is skipped; only a lost provider session aborts the poll.
func (s *Scheduler) PollOnce(ctx context.Context, now time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "scheduler.poll")
	defer span.Finish()
	span.SetTag("timeframe", s.opt.Timeframe.String())

	s.Log.Info("sample instant", zap.String("at", now.Format("15:04:05")), zap.Stringer("timeframe", s.opt.Timeframe))
	s.Observer.OnPoll(now)

	for _, in := range s.opt.Instruments {
		err := s.pollInstrument(ctx, in, now)
		if err == nil {
			continue
		}
		if errors.Is(err, models.ErrSessionLost) {
			span.SetTag("error", true)
			return err
		}
		s.Observer.OnFetchFailure(in.ID)
		s.Log.Warn("instrument skipped", zap.String("instrument", in.ID), zap.Error(err))
	}
	return nil
}

func (s *Scheduler) pollInstrument(ctx context.Context, in models.Instrument, now time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "scheduler.instrument")
	defer span.Finish()
	span.SetTag("instrument", in.ID)

	fctx, cancel := context.WithTimeout(ctx, s.opt.FetchTimeout)
	raw, err := s.Source.Fetch(fctx, in, s.opt.Timeframe, s.opt.CandleCount, now.Add(-s.opt.Lookback), now)
	cancel()
	if err != nil {
		return errors.Wrapf(err, "fetch %s", in.ID)
	}

	window := s.window(raw, now)
	ev, ok := s.Engine.Evaluate(window)
	log := s.Log.With(zap.String("instrument", in.ID))
	if !ok {
		log.Info("no signal", zap.Int("candles", len(window)), zap.String("evidence", ev.Dump()))
		return nil
	}
	if !ev.Latest.Completed(s.opt.Timeframe, now) {
		log.Warn("latest bar still forming, skipped", zap.Time("bar", ev.Latest.OpenTime))
		return nil
	}

	sig := models.Signal{
		Instrument: in,
		Timeframe:  s.opt.Timeframe,
		Kind:       ev.Kind,
		Prev:       ev.Prev,
		Latest:     ev.Latest,
		GapPoints:  ev.GapPoints,
		GapPercent: ev.GapPercent,
		DetectedAt: now,
	}
	key := sig.Key()
	if !s.Ledger.TryMark(key) {
		log.Debug("bar already alerted", zap.Time("bar", key.BarOpen))
		return nil
	}
	if s.Journal != nil {
		if err := s.Journal.Record(ctx, key); err != nil {
			log.Warn("journal record failed", zap.Error(err))
		}
	}

	sig.ID = s.newID()
	log.Info("signal detected",
		zap.String("id", sig.ID),
		zap.Stringer("kind", sig.Kind),
		zap.Time("bar", sig.Latest.OpenTime),
		zap.Float64("gap_points", sig.GapPoints),
	)
	s.Observer.OnSignal(sig)

	s.deliver(ctx, sig)
	if s.Publisher != nil {
		s.Publisher.Publish(sig)
	}
	return nil
}

// window normalises a fetch result so that its last element is the forming
// bar. When the provider has not published the forming bar yet, an empty
// placeholder at the current bar open takes its place.
func (s *Scheduler) window(raw []models.Candle, now time.Time) models.CandleWindow {
	w := models.NewCandleWindow(raw).DropAfter(now)
	if n := len(w); n > 0 && w[n-1].Completed(s.opt.Timeframe, now) {
		w = append(w, models.Candle{OpenTime: s.Clock.BarOpen(s.opt.Timeframe, now)})
	}
	return w.Tail(s.opt.CandleCount)
}

// deliver is best effort: the key stays marked even if the notifier fails.
func (s *Scheduler) deliver(ctx context.Context, sig models.Signal) {
	dctx, cancel := context.WithTimeout(ctx, s.opt.DeliverTimeout)
	defer cancel()

	if err := s.Notifier.Deliver(dctx, notify.Render(sig)); err != nil {
		s.Observer.OnDeliveryFailure()
		s.Log.Error("signal delivery failed", zap.String("id", sig.ID), zap.Error(err))
	}
}

// Run loops until ctx is done or a fatal error occurs.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Log.Info("scheduler started",
		zap.Stringer("timeframe", s.opt.Timeframe),
		zap.Int("instruments", len(s.opt.Instruments)),
	)
	for {
		d, err := s.Tick(ctx)
		if err != nil {
			return err
		}
		if err := s.sleep(ctx, d); err != nil {
			return nil
		}
	}
}

// Start runs the loop in the background; onFatal is called once if it stops
// on a fatal error.
func (s *Scheduler) Start(parent context.Context, onFatal func(error)) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if err := s.Run(ctx); err != nil {
			s.mu.Lock()
			s.runErr = err
			s.mu.Unlock()
			s.Log.Error("scheduler stopped", zap.Error(err))
			if onFatal != nil {
				onFatal(err)
			}
		}
	}()
}

// Stop cancels the loop and waits for it, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err is the fatal error the loop stopped with, if any.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) OnState(State)          {}
func (nopObserver) OnPoll(time.Time)       {}
func (nopObserver) OnFetchFailure(string)  {}
func (nopObserver) OnSignal(models.Signal) {}
func (nopObserver) OnDeliveryFailure()     {}
