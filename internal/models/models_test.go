package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	for _, raw := range []string{"5m", "5M", " 5m ", "5min"} {
		tf, err := ParseTimeframe(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Timeframe5m, tf)
	}

	_, err := ParseTimeframe("7m")
	assert.ErrorIs(t, err, ErrUnknownTimeframe)
	_, err = ParseTimeframe("")
	assert.ErrorIs(t, err, ErrUnknownTimeframe)
}

func TestTimeframeMeta(t *testing.T) {
	assert.Equal(t, 3, Timeframe3m.Minutes())
	assert.Equal(t, 15*time.Minute, Timeframe15m.Duration())
	assert.Equal(t, "FIVE_MINUTE", Timeframe5m.ProviderInterval())
	assert.False(t, Timeframe("2m").IsValid())
	assert.Equal(t, 0, Timeframe("2m").Minutes())
}

func TestCandle_Direction(t *testing.T) {
	assert.True(t, Candle{Open: 100, Close: 102}.Green())
	assert.True(t, Candle{Open: 102, Close: 100}.Red())

	doji := Candle{Open: 100, Close: 100}
	assert.False(t, doji.Green())
	assert.False(t, doji.Red())
}

func TestCandle_Completed(t *testing.T) {
	c := Candle{OpenTime: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)}
	assert.False(t, c.Completed(Timeframe5m, c.OpenTime.Add(4*time.Minute+59*time.Second)))
	assert.True(t, c.Completed(Timeframe5m, c.OpenTime.Add(5*time.Minute)))
}

func TestNewCandleWindow_SortsAndDedups(t *testing.T) {
	base := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	w := NewCandleWindow([]Candle{
		{OpenTime: at(10), Close: 3},
		{OpenTime: at(0), Close: 1},
		{OpenTime: at(5), Close: 2},
		{OpenTime: at(5), Close: 22},
	})

	require.Len(t, w, 3)
	assert.Equal(t, at(0), w[0].OpenTime)
	assert.Equal(t, 22.0, w[1].Close, "last duplicate wins")
	assert.Equal(t, at(10), w[2].OpenTime)
	for i := 1; i < len(w); i++ {
		assert.True(t, w[i-1].OpenTime.Before(w[i].OpenTime))
	}
}

func TestCandleWindow_TailAndDropAfter(t *testing.T) {
	base := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	var w CandleWindow
	for i := 0; i < 6; i++ {
		w = append(w, Candle{OpenTime: base.Add(time.Duration(i) * 5 * time.Minute)})
	}

	assert.Len(t, w.Tail(3), 3)
	assert.Equal(t, w[5].OpenTime, w.Tail(3)[2].OpenTime)
	assert.Len(t, w.Tail(10), 6)
	assert.Len(t, w.Tail(0), 6)

	cut := w.DropAfter(base.Add(12 * time.Minute))
	assert.Len(t, cut, 3)
	assert.Len(t, w, 6, "source window untouched")
}

func TestSignal_KeyUsesLatestBar(t *testing.T) {
	bar := time.Date(2025, 3, 4, 10, 5, 0, 0, time.UTC)
	sig := Signal{
		Instrument: Instrument{ID: "NIFTY"},
		Timeframe:  Timeframe5m,
		Latest:     Candle{OpenTime: bar},
	}
	assert.Equal(t, NewDedupKey("NIFTY", Timeframe5m, bar).ID(), sig.Key().ID())
}
