package service

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"signal_bot/internal/models"
	"signal_bot/internal/runner"
)

// State tracks liveness of the scheduler and exports its counters. It is the
// scheduler's Observer.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	schedState     atomic.Int32
	lastPollUnix   atomic.Int64 // unix seconds
	lastSignalUnix atomic.Int64
	signals        atomic.Int64

	registry         *prometheus.Registry
	polls            prometheus.Counter
	fetchFailures    *prometheus.CounterVec
	alerts           *prometheus.CounterVec
	deliveryFailures prometheus.Counter
}

func NewState() *State {
	s := &State{
		startedAt: time.Now(),
		registry:  prometheus.NewRegistry(),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signal_polls_total",
			Help: "Sample instants at which instruments were polled",
		}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_fetch_failures_total",
			Help: "Instruments skipped because fetch or evaluation failed",
		}, []string{"instrument"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_alerts_total",
			Help: "Signals emitted",
		}, []string{"instrument", "kind"}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signal_delivery_failures_total",
			Help: "Signals the notifier failed to deliver",
		}),
	}
	s.registry.MustRegister(s.polls, s.fetchFailures, s.alerts, s.deliveryFailures)
	s.ready.Store(false)
	return s
}

func (s *State) Registry() *prometheus.Registry { return s.registry }

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) OnState(st runner.State) { s.schedState.Store(int32(st)) }
func (s *State) SchedulerState() runner.State {
	return runner.State(s.schedState.Load())
}

func (s *State) OnPoll(at time.Time) {
	s.lastPollUnix.Store(at.Unix())
	s.polls.Inc()
}

func (s *State) OnFetchFailure(instrument string) {
	s.fetchFailures.WithLabelValues(instrument).Inc()
}

func (s *State) OnSignal(sig models.Signal) {
	s.lastSignalUnix.Store(sig.DetectedAt.Unix())
	s.signals.Add(1)
	s.alerts.WithLabelValues(sig.Instrument.ID, sig.Kind.String()).Inc()
}

func (s *State) OnDeliveryFailure() { s.deliveryFailures.Inc() }

func (s *State) LastPoll() time.Time   { return unixOrZero(s.lastPollUnix.Load()) }
func (s *State) LastSignal() time.Time { return unixOrZero(s.lastSignalUnix.Load()) }
func (s *State) Signals() int64        { return s.signals.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func unixOrZero(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}
