package helper

import (
	"fmt"
	"strings"
	"time"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes the characters Telegram's HTML parse mode treats as markup.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }

// NormTF lower-cases a timeframe and drops provider decorations: "5MIN" -> "5m".
func NormTF(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	s = strings.TrimSuffix(s, "in")
	switch s {
	case "60m", "1h":
		return "1h"
	default:
		return s
	}
}

func F2(v float64) string { return fmt.Sprintf("%.2f", v) }

// Signed always carries a sign: +1.00, -0.25.
func Signed(v float64) string { return fmt.Sprintf("%+.2f", v) }

// BarTime is the short bar label used in alerts, e.g. "04-Mar 10:05".
func BarTime(t time.Time) string { return t.Format("02-Jan 15:04") }
