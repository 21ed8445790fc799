package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health/service"
	feed "signal_bot/internal/modules/signal_feed/service"
	"signal_bot/internal/runner"
)

type Config struct {
	Addr     string // e.g. ":8080"
	FeedPath string // empty disables the websocket feed
}

func NewConfig(cfg *config.Config) Config {
	c := Config{Addr: cfg.Service.HealthAddr}
	if cfg.Feed.Enabled {
		c.FeedPath = cfg.Feed.Path
	}
	return c
}

type MuxParams struct {
	fx.In

	Cfg   Config
	State *service.State
	Hub   *feed.Hub `optional:"true"`
}

func NewMux(p MuxParams) *http.ServeMux {
	state := p.State
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"ready":          state.Ready(),
			"scheduler":      state.SchedulerState().String(),
			"uptimeSec":      int64(state.Uptime().Seconds()),
			"lastPollUnix":   unix(state.LastPoll()),
			"lastSignalUnix": unix(state.LastSignal()),
			"signals":        state.Signals(),
		}
		if p.Hub != nil {
			resp["subscribers"] = p.Hub.Subscribers()
		}
		body, err := sonic.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(state.Registry(), promhttp.HandlerOpts{}))

	if p.Cfg.FeedPath != "" && p.Hub != nil {
		mux.Handle(p.Cfg.FeedPath, p.Hub)
	}
	return mux
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux, state *service.State, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Error("health server stopped", zap.Error(err))
				}
			}()
			state.SetReady(true)
			log.Info("health server listening", zap.String("addr", cfg.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			func(s *service.State) runner.Observer { return s },
			NewConfig,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
