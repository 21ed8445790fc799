package models

import (
	"errors"
	"time"
)

// ErrSessionLost means the data provider session could not be renewed.
// It is the only error that stops the scheduler.
var ErrSessionLost = errors.New("data provider session lost")

// SignalKind has no neutral value: no signal is represented by absence.
type SignalKind string

const (
	SignalBullish SignalKind = "BULLISH"
	SignalBearish SignalKind = "BEARISH"
)

func (k SignalKind) String() string { return string(k) }

// Signal is a classified, deduplicated alert for one completed bar.
type Signal struct {
	ID         string     `json:"id"`
	Instrument Instrument `json:"instrument"`
	Timeframe  Timeframe  `json:"timeframe"`
	Kind       SignalKind `json:"kind"`

	Prev   Candle `json:"prev"`
	Latest Candle `json:"latest"`

	GapPoints  float64 `json:"gap_points"`
	GapPercent float64 `json:"gap_percent"`

	DetectedAt time.Time `json:"detected_at"`
}

func (s Signal) Key() DedupKey {
	return NewDedupKey(s.Instrument.ID, s.Timeframe, s.Latest.OpenTime)
}

// DedupKey identifies one evaluation of one completed bar.
type DedupKey struct {
	Instrument string
	Timeframe  Timeframe
	BarOpen    time.Time
}

func NewDedupKey(instrument string, tf Timeframe, barOpen time.Time) DedupKey {
	return DedupKey{Instrument: instrument, Timeframe: tf, BarOpen: barOpen}
}

// DedupID is the comparable form of a DedupKey. time.Time is not safe as a map
// key across locations, so the bar open is stored as unix nanoseconds.
type DedupID struct {
	Instrument string
	Timeframe  Timeframe
	BarOpen    int64
}

func (k DedupKey) ID() DedupID {
	return DedupID{Instrument: k.Instrument, Timeframe: k.Timeframe, BarOpen: k.BarOpen.UnixNano()}
}
