package market

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"signal_bot/internal/models"
)

// TimeOfDay is a wall clock time inside a trading day.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
}

func (t TimeOfDay) seconds() int { return t.Hour*3600 + t.Minute*60 + t.Second }

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.seconds() < o.seconds() }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

type ClockConfig struct {
	Location *time.Location
	Open     TimeOfDay
	Close    TimeOfDay
	// Eligible seconds of a sample minute, both inclusive.
	SampleFromSec int
	SampleToSec   int
}

// Clock answers "is the market open" and "is this a sampling instant".
// Comparisons are done on the exchange's local time of day only; there is no
// holiday calendar.
type Clock struct {
	cfg ClockConfig
	now func() time.Time
}

func NewClock(cfg ClockConfig, now func() time.Time) *Clock {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{cfg: cfg, now: now}
}

// Now returns the current instant in the exchange location.
func (c *Clock) Now() time.Time { return c.now().In(c.cfg.Location) }

func (c *Clock) Location() *time.Location { return c.cfg.Location }

func (c *Clock) IsTradingNow() bool { return c.IsTrading(c.Now()) }

// IsTrading is true inside [Open, Close], both ends inclusive.
func (c *Clock) IsTrading(t time.Time) bool {
	t = t.In(c.cfg.Location)
	sec := t.Hour()*3600 + t.Minute()*60 + t.Second()
	if sec < c.cfg.Open.seconds() || sec > c.cfg.Close.seconds() {
		return false
	}
	// 15:30:00.5 is already past a 15:30:00 close
	if sec == c.cfg.Close.seconds() && t.Nanosecond() > 0 {
		return false
	}
	return true
}

// IsSampleInstant is true when the minute of hour is a multiple of the bar
// length and the second falls inside the eligibility window.
func (c *Clock) IsSampleInstant(tf models.Timeframe, t time.Time) bool {
	m := tf.Minutes()
	if m <= 0 {
		return false
	}
	t = t.In(c.cfg.Location)
	if t.Minute()%m != 0 {
		return false
	}
	s := t.Second()
	return s >= c.cfg.SampleFromSec && s <= c.cfg.SampleToSec
}

// BarOpen returns the open time of the bar that contains t.
func (c *Clock) BarOpen(tf models.Timeframe, t time.Time) time.Time {
	t = t.In(c.cfg.Location)
	m := tf.Minutes()
	if m <= 0 {
		return t.Truncate(time.Minute)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()-t.Minute()%m, 0, 0, c.cfg.Location)
}

// UntilOpen is the wait until the next session open, zero while trading.
func (c *Clock) UntilOpen(t time.Time) time.Duration {
	if c.IsTrading(t) {
		return 0
	}
	t = t.In(c.cfg.Location)
	o := c.cfg.Open
	open := time.Date(t.Year(), t.Month(), t.Day(), o.Hour, o.Minute, o.Second, 0, c.cfg.Location)
	if !open.After(t) {
		open = open.AddDate(0, 0, 1)
	}
	return open.Sub(t)
}
