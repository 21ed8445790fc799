package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bot/internal/models"
)

func newTestClock(t *testing.T) *Clock {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	open, err := ParseTimeOfDay("09:15")
	require.NoError(t, err)
	closeAt, err := ParseTimeOfDay("15:30")
	require.NoError(t, err)
	return NewClock(ClockConfig{
		Location:      loc,
		Open:          open,
		Close:         closeAt,
		SampleFromSec: 1,
		SampleToSec:   2,
	}, nil)
}

func at(c *Clock, h, m, s int) time.Time {
	return time.Date(2025, 3, 4, h, m, s, 0, c.Location())
}

func TestClock_TradingBoundaries(t *testing.T) {
	c := newTestClock(t)

	assert.True(t, c.IsTrading(at(c, 9, 15, 0)), "open boundary is inclusive")
	assert.False(t, c.IsTrading(at(c, 9, 14, 59)), "one second before open")
	assert.True(t, c.IsTrading(at(c, 12, 0, 0)))
	assert.True(t, c.IsTrading(at(c, 15, 30, 0)), "close boundary is inclusive")
	assert.False(t, c.IsTrading(at(c, 15, 30, 1)), "one second after close")
	assert.False(t, c.IsTrading(at(c, 23, 0, 0)))
}

func TestClock_TradingUsesExchangeLocation(t *testing.T) {
	c := newTestClock(t)

	// 03:45 UTC == 09:15 IST
	assert.True(t, c.IsTrading(time.Date(2025, 3, 4, 3, 45, 0, 0, time.UTC)))
	assert.False(t, c.IsTrading(time.Date(2025, 3, 4, 3, 44, 59, 0, time.UTC)))
}

func TestClock_IsTradingNowUsesInjectedTime(t *testing.T) {
	c := newTestClock(t)
	c.now = func() time.Time { return at(c, 10, 0, 0) }
	assert.True(t, c.IsTradingNow())

	c.now = func() time.Time { return at(c, 8, 0, 0) }
	assert.False(t, c.IsTradingNow())
}

func TestClock_SampleInstant(t *testing.T) {
	c := newTestClock(t)

	cases := []struct {
		name string
		tf   models.Timeframe
		t    time.Time
		want bool
	}{
		{"5m aligned first eligible second", models.Timeframe5m, at(c, 10, 5, 1), true},
		{"5m aligned last eligible second", models.Timeframe5m, at(c, 10, 5, 2), true},
		{"5m aligned second zero", models.Timeframe5m, at(c, 10, 5, 0), false},
		{"5m aligned past window", models.Timeframe5m, at(c, 10, 5, 3), false},
		{"5m misaligned minute", models.Timeframe5m, at(c, 10, 6, 1), false},
		{"3m aligned", models.Timeframe3m, at(c, 9, 18, 1), true},
		{"3m misaligned", models.Timeframe3m, at(c, 9, 20, 1), false},
		{"15m at hour", models.Timeframe15m, at(c, 11, 0, 2), true},
		{"unknown timeframe", models.Timeframe("7m"), at(c, 10, 0, 1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.IsSampleInstant(tc.tf, tc.t))
		})
	}
}

func TestClock_BarOpen(t *testing.T) {
	c := newTestClock(t)
	assert.Equal(t, at(c, 10, 5, 0), c.BarOpen(models.Timeframe5m, at(c, 10, 7, 42)))
	assert.Equal(t, at(c, 9, 15, 0), c.BarOpen(models.Timeframe3m, at(c, 9, 17, 59)))
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("15:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 15, Minute: 30}, tod)

	tod, err = ParseTimeOfDay("09:15:30")
	require.NoError(t, err)
	assert.Equal(t, "09:15:30", tod.String())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)

	open, _ := ParseTimeOfDay("09:15")
	assert.True(t, open.Before(tod))
	assert.False(t, tod.Before(open))
	assert.False(t, open.Before(open))
}

func TestClock_UntilOpen(t *testing.T) {
	c := newTestClock(t)

	assert.Equal(t, time.Duration(0), c.UntilOpen(at(c, 10, 0, 0)))
	assert.Equal(t, 30*time.Second, c.UntilOpen(at(c, 9, 14, 30)))
	assert.Equal(t, 17*time.Hour+45*time.Minute-time.Second, c.UntilOpen(at(c, 15, 30, 1)))
}
