package health

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/health/service"
	feed "signal_bot/internal/modules/signal_feed/service"
	"signal_bot/internal/runner"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestMux_Readiness(t *testing.T) {
	state := service.NewState()
	mux := NewMux(MuxParams{Cfg: Config{Addr: ":0"}, State: state})

	code, _ := get(t, mux, "/livez")
	assert.Equal(t, http.StatusOK, code)

	code, _ = get(t, mux, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	state.SetReady(true)
	code, body := get(t, mux, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body)
}

func TestMux_HealthzReportsScheduler(t *testing.T) {
	state := service.NewState()
	mux := NewMux(MuxParams{Cfg: Config{}, State: state, Hub: feed.NewHub(zap.NewNop())})

	state.OnState(runner.StateSleeping)
	state.OnPoll(time.Unix(1700000000, 0))
	state.OnSignal(models.Signal{
		Instrument: models.Instrument{ID: "NIFTY"},
		Kind:       models.SignalBullish,
		DetectedAt: time.Unix(1700000001, 0),
	})

	code, body := get(t, mux, "/healthz")
	require.Equal(t, http.StatusOK, code)

	var resp map[string]any
	require.NoError(t, sonic.UnmarshalString(body, &resp))
	assert.Equal(t, "sleeping", resp["scheduler"])
	assert.EqualValues(t, 1700000000, resp["lastPollUnix"])
	assert.EqualValues(t, 1700000001, resp["lastSignalUnix"])
	assert.EqualValues(t, 1, resp["signals"])
	assert.EqualValues(t, 0, resp["subscribers"])
}

func TestMux_Metrics(t *testing.T) {
	state := service.NewState()
	mux := NewMux(MuxParams{Cfg: Config{}, State: state})

	state.OnPoll(time.Now())
	state.OnFetchFailure("BANKNIFTY")
	state.OnSignal(models.Signal{Instrument: models.Instrument{ID: "NIFTY"}, Kind: models.SignalBearish})
	state.OnDeliveryFailure()

	code, body := get(t, mux, "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "signal_polls_total 1")
	assert.Contains(t, body, `signal_fetch_failures_total{instrument="BANKNIFTY"} 1`)
	assert.Contains(t, body, `signal_alerts_total{instrument="NIFTY",kind="BEARISH"} 1`)
	assert.Contains(t, body, "signal_delivery_failures_total 1")
}

func TestMux_FeedMountedOnlyWhenEnabled(t *testing.T) {
	hub := feed.NewHub(zap.NewNop())

	off := NewMux(MuxParams{Cfg: Config{}, State: service.NewState(), Hub: hub})
	code, _ := get(t, off, "/ws/signals")
	assert.Equal(t, http.StatusNotFound, code)

	on := NewMux(MuxParams{Cfg: Config{FeedPath: "/ws/signals"}, State: service.NewState(), Hub: hub})
	code, _ = get(t, on, "/ws/signals")
	assert.Equal(t, http.StatusBadRequest, code, "plain GET is not a websocket upgrade")
}
