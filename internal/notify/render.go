package notify

import (
	"fmt"
	"strings"

	"signal_bot/internal/helper"
	"signal_bot/internal/models"
)

// Render builds the alert text. The output is plain text; transports escape it.
func Render(sig models.Signal) string {
	p, l := sig.Prev, sig.Latest

	var b strings.Builder
	if sig.Kind == models.SignalBullish {
		b.WriteString("🚀 BULLISH SIGNAL CONFIRMED!\n\n")
	} else {
		b.WriteString("📉 BEARISH SIGNAL CONFIRMED!\n\n")
	}
	fmt.Fprintf(&b, "📊 %s %s\n", sig.Instrument.ID, strings.ToUpper(sig.Timeframe.String()))
	fmt.Fprintf(&b, "🕐 Time: %s\n\n", helper.BarTime(l.OpenTime))

	b.WriteString("CONDITIONS MET:\n")
	if sig.Kind == models.SignalBullish {
		fmt.Fprintf(&b, "✅ Gap Up: %s > %s\n", helper.F2(l.Open), helper.F2(p.Close))
		fmt.Fprintf(&b, "✅ Prev Green: %s < %s\n", helper.F2(p.Open), helper.F2(p.Close))
		fmt.Fprintf(&b, "✅ Curr Green: %s > %s\n\n", helper.F2(l.Close), helper.F2(l.Open))
	} else {
		fmt.Fprintf(&b, "✅ Gap Down: %s < %s\n", helper.F2(l.Open), helper.F2(p.Close))
		fmt.Fprintf(&b, "✅ Prev Red: %s > %s\n", helper.F2(p.Open), helper.F2(p.Close))
		fmt.Fprintf(&b, "✅ Curr Red: %s < %s\n\n", helper.F2(l.Close), helper.F2(l.Open))
	}

	b.WriteString("CANDLE DATA:\n")
	fmt.Fprintf(&b, "Previous: %s\n", ohlc(p))
	fmt.Fprintf(&b, "Current:  %s\n\n", ohlc(l))
	fmt.Fprintf(&b, "🎯 Gap: %s pts (%s%%)", helper.Signed(sig.GapPoints), helper.Signed(sig.GapPercent))
	return b.String()
}

func ohlc(c models.Candle) string {
	return fmt.Sprintf("O:%s H:%s L:%s C:%s",
		helper.F2(c.Open), helper.F2(c.High), helper.F2(c.Low), helper.F2(c.Close))
}

func StartupMessage(instruments []models.Instrument, tf models.Timeframe) string {
	ids := make([]string, 0, len(instruments))
	for _, in := range instruments {
		ids = append(ids, in.ID)
	}
	return fmt.Sprintf(
		"NIFTY SIGNAL MONITOR STARTED\n\n"+
			"Monitoring: %s\n"+
			"Timeframe: %s\n\n"+
			"Bullish: Gap up + Prev green + Curr green\n"+
			"Bearish: Gap down + Prev red + Curr red\n\n"+
			"System Ready!",
		strings.Join(ids, " & "), tf,
	)
}

func StopMessage() string { return "Nifty Signal Monitor Stopped" }

func FatalMessage(err error) string { return fmt.Sprintf("Critical Error: %v", err) }
