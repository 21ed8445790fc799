package strategy

import "signal_bot/internal/models"

// Engine is what the scheduler calls for every polled window.
type Engine interface {
	// ok==true only for a fully matched pattern. Evidence is filled whenever
	// the window had enough candles, so partial matches can still be logged.
	Evaluate(window models.CandleWindow) (ev Evidence, ok bool)
	Name() string
}

// Conditions of one direction of the pattern.
type Conditions struct {
	Gap      bool // latest opened beyond prev close
	PrevBody bool // prev candle closed in the signal direction
	CurrBody bool // latest candle closed in the signal direction
}

func (c Conditions) All() bool { return c.Gap && c.PrevBody && c.CurrBody }

func (c Conditions) Count() int {
	n := 0
	for _, v := range []bool{c.Gap, c.PrevBody, c.CurrBody} {
		if v {
			n++
		}
	}
	return n
}

// Evidence is everything needed to render or debug one evaluation.
type Evidence struct {
	Kind   models.SignalKind // set only when the pattern matched
	Prev   models.Candle
	Latest models.Candle

	GapPoints  float64
	GapPercent float64

	Bullish Conditions
	Bearish Conditions
}
