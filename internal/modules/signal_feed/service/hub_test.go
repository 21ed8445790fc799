package service

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"signal_bot/internal/models"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Subscribers() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishReachesSubscribers(t *testing.T) {
	h := NewHub(zap.NewNop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	a, b := dial(t, srv), dial(t, srv)
	waitSubscribers(t, h, 2)

	sig := models.Signal{
		ID:         "abc",
		Instrument: models.Instrument{ID: "NIFTY"},
		Timeframe:  models.Timeframe5m,
		Kind:       models.SignalBullish,
		GapPoints:  1,
	}
	h.Publish(sig)

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, sonic.Unmarshal(data, &msg))
		assert.Equal(t, "signal", msg.Type)
		assert.Equal(t, "abc", msg.Signal.ID)
		assert.Equal(t, models.SignalBullish, msg.Signal.Kind)
		assert.Equal(t, "NIFTY", msg.Signal.Instrument.ID)
	}
}

func TestHub_DisconnectedSubscriberIsRemoved(t *testing.T) {
	h := NewHub(zap.NewNop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitSubscribers(t, h, 1)

	_ = conn.Close()
	waitSubscribers(t, h, 0)

	// publishing with nobody listening is a no-op
	h.Publish(models.Signal{ID: "x"})
}

func TestHub_Close(t *testing.T) {
	h := NewHub(zap.NewNop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitSubscribers(t, h, 1)

	h.Close()
	assert.Equal(t, 0, h.Subscribers())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
