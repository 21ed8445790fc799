package models

import (
	"errors"
	"fmt"
	"time"

	"signal_bot/internal/helper"
)

var ErrUnknownTimeframe = errors.New("unknown timeframe")

// Timeframe is a bar duration, e.g. "5m".
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe3m  Timeframe = "3m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
)

type timeframeMeta struct {
	minutes  int
	provider string // SmartAPI interval name
}

// every minute count divides 15, so minute-of-hour alignment matches bars anchored at :15
var timeframes = map[Timeframe]timeframeMeta{
	Timeframe1m:  {minutes: 1, provider: "ONE_MINUTE"},
	Timeframe3m:  {minutes: 3, provider: "THREE_MINUTE"},
	Timeframe5m:  {minutes: 5, provider: "FIVE_MINUTE"},
	Timeframe15m: {minutes: 15, provider: "FIFTEEN_MINUTE"},
}

// ParseTimeframe accepts "5m", "5M", "5min" or " 5m ".
func ParseTimeframe(raw string) (Timeframe, error) {
	tf := Timeframe(helper.NormTF(raw))
	if _, ok := timeframes[tf]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTimeframe, raw)
	}
	return tf, nil
}

func (tf Timeframe) IsValid() bool {
	_, ok := timeframes[tf]
	return ok
}

// Minutes returns the bar length in minutes, 0 for an unknown timeframe.
func (tf Timeframe) Minutes() int {
	return timeframes[tf].minutes
}

func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf.Minutes()) * time.Minute
}

func (tf Timeframe) ProviderInterval() string {
	return timeframes[tf].provider
}

func (tf Timeframe) String() string { return string(tf) }
