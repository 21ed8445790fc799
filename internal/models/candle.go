package models

import (
	"sort"
	"time"
)

// Candle is one OHLCV bar. OpenTime is the bar start in exchange local time.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
}

func (c Candle) Green() bool { return c.Close > c.Open }
func (c Candle) Red() bool   { return c.Close < c.Open }

// Completed reports whether the bar interval has fully elapsed at now.
func (c Candle) Completed(tf Timeframe, now time.Time) bool {
	return !now.Before(c.OpenTime.Add(tf.Duration()))
}

// CandleWindow is ordered oldest to newest with strictly increasing open times.
// The last element is the bar still forming at poll time.
type CandleWindow []Candle

// NewCandleWindow sorts candles by open time and drops duplicates, keeping the
// last occurrence of each open time.
func NewCandleWindow(candles []Candle) CandleWindow {
	out := make(CandleWindow, 0, len(candles))
	idx := make(map[int64]int, len(candles))
	for _, c := range candles {
		key := c.OpenTime.UnixNano()
		if i, ok := idx[key]; ok {
			out[i] = c
			continue
		}
		idx[key] = len(out)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	return out
}

// Tail returns at most n newest candles.
func (w CandleWindow) Tail(n int) CandleWindow {
	if n <= 0 || len(w) <= n {
		return w
	}
	return w[len(w)-n:]
}

// DropAfter removes candles that open after now (clock skew on the provider side).
func (w CandleWindow) DropAfter(now time.Time) CandleWindow {
	out := w[:0:0]
	for _, c := range w {
		if c.OpenTime.After(now) {
			continue
		}
		out = append(out, c)
	}
	return out
}
