package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bot/internal/models"
)

var t0 = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

// window builds prev, latest and a forming bar 5 minutes apart.
func window(prevOpen, prevClose, latestOpen, latestClose float64) models.CandleWindow {
	return models.CandleWindow{
		{OpenTime: t0, Open: prevOpen, Close: prevClose, High: max(prevOpen, prevClose), Low: min(prevOpen, prevClose)},
		{OpenTime: t0.Add(5 * time.Minute), Open: latestOpen, Close: latestClose, High: max(latestOpen, latestClose), Low: min(latestOpen, latestClose)},
		{OpenTime: t0.Add(10 * time.Minute), Open: 1, Close: 1},
	}
}

func TestGap_Bullish(t *testing.T) {
	ev, ok := NewGap().Evaluate(window(100, 102, 103, 105))

	require.True(t, ok)
	assert.Equal(t, models.SignalBullish, ev.Kind)
	assert.InDelta(t, 1.0, ev.GapPoints, 1e-9)
	assert.InDelta(t, 1.0/102*100, ev.GapPercent, 1e-9)
	assert.Equal(t, t0.Add(5*time.Minute), ev.Latest.OpenTime)
}

func TestGap_Bearish(t *testing.T) {
	ev, ok := NewGap().Evaluate(window(102, 100, 99, 97))

	require.True(t, ok)
	assert.Equal(t, models.SignalBearish, ev.Kind)
	assert.InDelta(t, -1.0, ev.GapPoints, 1e-9)
	assert.InDelta(t, -1.0, ev.GapPercent, 1e-9)
}

func TestGap_MixedCandlesAreNoSignal(t *testing.T) {
	// prev green, latest red, gap up
	ev, ok := NewGap().Evaluate(window(100, 102, 104, 103))

	assert.False(t, ok)
	assert.Equal(t, 2, ev.Bullish.Count())
	assert.True(t, ev.Bullish.Gap)
	assert.False(t, ev.Bullish.CurrBody)
	assert.Equal(t, models.SignalKind(""), ev.Kind)
}

func TestGap_PrevRedWithGapUpIsNoSignal(t *testing.T) {
	// previous candle red must not count as the bullish prev condition
	_, ok := NewGap().Evaluate(window(102, 100, 101, 103))
	assert.False(t, ok)
}

func TestGap_NoGapIsNoSignal(t *testing.T) {
	ev, ok := NewGap().Evaluate(window(100, 102, 102, 105))
	assert.False(t, ok)
	assert.False(t, ev.Bullish.Gap)
	assert.False(t, ev.Bearish.Gap)
}

func TestGap_ShortWindow(t *testing.T) {
	g := NewGap()
	full := window(100, 102, 103, 105)
	for n := 0; n < MinWindow; n++ {
		_, ok := g.Evaluate(full[:n])
		assert.False(t, ok, "len=%d", n)
	}
	_, err := Inspect(full[:2])
	assert.ErrorIs(t, err, ErrShortWindow)
}

func TestGap_ZeroPrevCloseIsNoSignal(t *testing.T) {
	w := window(-1, 0, 1, 2)

	ev, ok := NewGap().Evaluate(w)
	assert.False(t, ok)
	assert.Equal(t, 0.0, ev.Prev.Close)

	_, err := Inspect(w)
	assert.ErrorIs(t, err, ErrZeroClose)
}

func TestGap_UsesOnlyThirdAndSecondFromLast(t *testing.T) {
	w := append(models.CandleWindow{
		{OpenTime: t0.Add(-10 * time.Minute), Open: 500, Close: 400},
		{OpenTime: t0.Add(-5 * time.Minute), Open: 400, Close: 300},
	}, window(100, 102, 103, 105)...)

	// forming bar that would flip the result if it were used
	w[len(w)-1] = models.Candle{OpenTime: t0.Add(10 * time.Minute), Open: 200, Close: 50}

	ev, ok := NewGap().Evaluate(w)
	require.True(t, ok)
	assert.Equal(t, models.SignalBullish, ev.Kind)
	assert.Equal(t, 102.0, ev.Prev.Close)
}

func TestGap_NeverBothDirections(t *testing.T) {
	prices := []float64{98, 99, 100, 101, 102}
	g := NewGap()
	for _, po := range prices {
		for _, pc := range prices {
			for _, lo := range prices {
				for _, lc := range prices {
					ev, _ := g.Evaluate(window(po, pc, lo, lc))
					assert.False(t, ev.Bullish.All() && ev.Bearish.All())
				}
			}
		}
	}
}

func TestEvidence_Dump(t *testing.T) {
	ev, _ := NewGap().Evaluate(window(100, 102, 103, 105))
	assert.Contains(t, ev.Dump(), "bullish=3/3")
	assert.Contains(t, ev.Dump(), "bearish=0/3")
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine("gap")
	require.NoError(t, err)
	assert.Equal(t, NameGap, e.Name())

	_, err = NewEngine("donchian")
	assert.Error(t, err)
}
