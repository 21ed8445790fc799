package strategy

import (
	"errors"
	"fmt"

	"signal_bot/internal/models"
)

var (
	ErrShortWindow = errors.New("window has fewer than 3 candles")
	ErrZeroClose   = errors.New("previous close is zero")
)

// MinWindow is the forming bar plus two completed bars.
const MinWindow = 3

// Gap detects a two candle continuation with an opening gap:
//
//	bullish: latest.open > prev.close, prev green, latest green
//	bearish: latest.open < prev.close, prev red,   latest red
//
// green means close > open, red means close < open, for both candles.
// The last window element is the forming bar and is never evaluated.
type Gap struct{}

func NewGap() *Gap { return &Gap{} }

func (g *Gap) Name() string { return NameGap }

func (g *Gap) Evaluate(window models.CandleWindow) (Evidence, bool) {
	ev, err := Inspect(window)
	if err != nil {
		return ev, false
	}
	switch {
	case ev.Bullish.All():
		ev.Kind = models.SignalBullish
		return ev, true
	case ev.Bearish.All():
		ev.Kind = models.SignalBearish
		return ev, true
	}
	return ev, false
}

// Inspect computes the evidence for the last two completed candles without
// classifying it. A zero previous close still returns prev/latest so the
// caller can log them.
func Inspect(window models.CandleWindow) (Evidence, error) {
	if len(window) < MinWindow {
		return Evidence{}, ErrShortWindow
	}
	prev := window[len(window)-3]
	latest := window[len(window)-2]

	ev := Evidence{Prev: prev, Latest: latest}
	if prev.Close == 0 {
		return ev, ErrZeroClose
	}

	ev.GapPoints = latest.Open - prev.Close
	ev.GapPercent = ev.GapPoints / prev.Close * 100

	ev.Bullish = Conditions{
		Gap:      latest.Open > prev.Close,
		PrevBody: prev.Green(),
		CurrBody: latest.Green(),
	}
	ev.Bearish = Conditions{
		Gap:      latest.Open < prev.Close,
		PrevBody: prev.Red(),
		CurrBody: latest.Red(),
	}
	return ev, nil
}

// Dump is a one-line summary for logs.
func (e Evidence) Dump() string {
	return fmt.Sprintf("gap=%+.2f (%+.3f%%) bullish=%d/3 [gap:%t prev:%t curr:%t] bearish=%d/3 [gap:%t prev:%t curr:%t]",
		e.GapPoints, e.GapPercent,
		e.Bullish.Count(), e.Bullish.Gap, e.Bullish.PrevBody, e.Bullish.CurrBody,
		e.Bearish.Count(), e.Bearish.Gap, e.Bearish.PrevBody, e.Bearish.CurrBody,
	)
}
